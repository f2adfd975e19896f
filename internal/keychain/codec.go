package keychain

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

func encode(value string) ([]byte, error) {
	b, _, err := transform.Bytes(encoding.UTF8Validator, []byte(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return b, nil
}

func decode(data []byte) (string, error) {
	b, _, err := transform.Bytes(encoding.UTF8Validator, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	return string(b), nil
}
