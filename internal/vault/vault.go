// Package vault defines the protocol spoken to a platform credential vault
// and the backends that implement it.
//
// A vault is addressed with attribute queries in the style of the macOS
// Security framework: a Query names the class of item, the group it belongs
// to (service, server, access group) and optionally the account. Every call
// returns a Status whose Kind is one of success, not-found or other.
package vault

import (
	"errors"
	"maps"
)

// ErrUnsupported is returned when a backend is not available on this platform.
var ErrUnsupported = errors.New("vault backend not supported on this platform")

// Attribute names understood by every backend.
const (
	AttrClass          = "class"
	AttrService        = "service"
	AttrAccount        = "account"
	AttrAccessGroup    = "access_group"
	AttrAccessible     = "accessible"
	AttrSynchronizable = "synchronizable"
	AttrLabel          = "label"
	AttrServer         = "server"
	AttrProtocol       = "protocol"
	AttrPath           = "path"
	AttrData           = "data"

	// Result-shape flags. They select what a Probe returns and never take
	// part in matching.
	AttrMatchLimit       = "match_limit"
	AttrReturnAttributes = "return_attributes"
	AttrReturnData       = "return_data"
)

// Class is the vault item class.
type Class string

const (
	ClassGenericPassword  Class = "generic_password"
	ClassInternetPassword Class = "internet_password"
)

// Accessible controls when the vault makes an item readable.
type Accessible string

const (
	AccessibleWhenUnlocked                   Accessible = "when_unlocked"
	AccessibleWhenUnlockedThisDeviceOnly     Accessible = "when_unlocked_this_device_only"
	AccessibleAfterFirstUnlock               Accessible = "after_first_unlock"
	AccessibleAfterFirstUnlockThisDeviceOnly Accessible = "after_first_unlock_this_device_only"
)

// Protocol values use the Security framework four-character codes.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "htps"
	ProtocolFTP   Protocol = "ftp "
	ProtocolSSH   Protocol = "ssh "
)

// MatchLimit bounds how many items a Probe may match.
type MatchLimit int

const (
	MatchLimitOne MatchLimit = iota + 1
	MatchLimitAll
)

// Query maps attribute names to values. Values are strings or the typed
// constants above; data is []byte and flags are bool or MatchLimit.
type Query map[string]any

// With returns a copy of q extended with key=value. q itself is never
// modified, so a base query can be shared between concurrent calls.
func (q Query) With(key string, value any) Query {
	out := make(Query, len(q)+1)
	maps.Copy(out, q)
	out[key] = value
	return out
}

// Clone returns a shallow copy of q.
func (q Query) Clone() Query {
	return maps.Clone(q)
}

// String returns the string value of key, or "" when absent or not a string.
func (q Query) String(key string) string {
	switch v := q[key].(type) {
	case string:
		return v
	case Class:
		return string(v)
	case Accessible:
		return string(v)
	case Protocol:
		return string(v)
	}
	return ""
}

// Bool returns the boolean value of key.
func (q Query) Bool(key string) bool {
	b, _ := q[key].(bool)
	return b
}

// Data returns the data attribute.
func (q Query) Data() []byte {
	b, _ := q[AttrData].([]byte)
	return b
}

// IsFlag reports whether key is a result-shape flag rather than an item attribute.
func IsFlag(key string) bool {
	switch key {
	case AttrMatchLimit, AttrReturnAttributes, AttrReturnData:
		return true
	}
	return false
}

// Result is the outcome of a Probe. Data is set only on success when the
// query asked for it with AttrReturnData.
type Result struct {
	Status Status
	Data   []byte
}

// Vault is the capability a credential vault exposes.
type Vault interface {
	// Probe looks up the item matching q. With AttrReturnData set the
	// item's data is returned; otherwise only existence is checked.
	Probe(q Query) Result

	// Write adds an item made of q plus attrs, or with update set replaces
	// attrs on the item matching q, leaving its other attributes untouched.
	Write(q Query, attrs Query, update bool) Status

	// Delete removes every item matching q.
	Delete(q Query) Status

	// Describe returns a human-readable message for a status code.
	Describe(code int32) (string, bool)
}
