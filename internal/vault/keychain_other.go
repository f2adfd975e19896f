//go:build !darwin

package vault

// Keychain is only available on macOS. Outside of it every call reports
// errSecUnimplemented.
type Keychain struct{}

// NewKeychain returns ErrUnsupported outside of macOS.
func NewKeychain() (*Keychain, error) {
	return nil, ErrUnsupported
}

func (k *Keychain) Probe(Query) Result                 { return Result{Status: Other(CodeUnimplemented)} }
func (k *Keychain) Write(Query, Query, bool) Status    { return Other(CodeUnimplemented) }
func (k *Keychain) Delete(Query) Status                { return Other(CodeUnimplemented) }
func (k *Keychain) Describe(code int32) (string, bool) { return Describe(code) }
