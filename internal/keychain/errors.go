package keychain

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is returned by SetValue when the value is not valid UTF-8.
	// No vault call is made.
	ErrEncoding = errors.New("secret value is not valid UTF-8")

	// ErrDecoding is returned by GetValue when the stored data is not valid
	// UTF-8, usually because the item was written by another program.
	ErrDecoding = errors.New("stored secret is not valid UTF-8")

	// ErrEmptyAccount is the cause of the errSecParam VaultError returned
	// for an empty account name.
	ErrEmptyAccount = errors.New("account must not be empty")
)

const unhandledError = "Unhandled Error"

// VaultError reports a vault status other than success or not-found.
type VaultError struct {
	Code    int32
	Message string
	Cause   error
}

func (e *VaultError) Error() string {
	return fmt.Sprintf("vault: %s (%d)", e.Message, e.Code)
}

func (e *VaultError) Unwrap() error {
	return e.Cause
}
