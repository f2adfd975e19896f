package vault

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// Keyring is a Vault over any backend supported by 99designs/keyring
// (Secret Service, KWallet, keyctl, pass, wincred, encrypted file).
//
// Keyring items only carry a key and data, so the vault group and the
// account are folded into the item key:
//
//	generic_password/<service>/<access group>/<account>
//	internet_password/<protocol>/<server>/<path>/<access group>/<account>
//
// Each part is path-escaped. A query names a single item when it carries
// the account attribute, even an empty one; without it the query covers the
// whole group.
//
// Keyring backends have no separate add and update calls. Write checks for
// an existing item first to keep the duplicate and not-found outcomes of the
// keychain, and holds a lock across the check and the store so that a
// losing concurrent add in this process gets errSecDuplicateItem. Nothing
// serializes writers in other processes: there the last Set wins.
type Keyring struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

// NewKeyring wraps an opened keyring.
func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// OpenKeyring opens a keyring with cfg and wraps it.
func OpenKeyring(cfg keyring.Config) (*Keyring, error) {
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyring(ring), nil
}

func (k *Keyring) Probe(q Query) Result {
	keys, st := k.matching(q)
	if !st.OK() {
		return Result{Status: st}
	}
	if !q.Bool(AttrReturnData) {
		return Result{Status: Success()}
	}
	item, err := k.ring.Get(keys[0])
	if err != nil {
		return Result{Status: keyringStatus(err)}
	}
	return Result{Status: Success(), Data: item.Data}
}

func (k *Keyring) Write(q Query, attrs Query, update bool) Status {
	k.mu.Lock()
	defer k.mu.Unlock()

	if update {
		keys, st := k.matching(q)
		if !st.OK() {
			return st
		}
		for _, key := range keys {
			item, err := k.ring.Get(key)
			if err != nil {
				return keyringStatus(err)
			}
			if _, ok := attrs[AttrData]; ok {
				item.Data = attrs.Data()
			}
			if label := attrs.String(AttrLabel); label != "" {
				item.Label = label
			}
			if err := k.ring.Set(item); err != nil {
				return keyringStatus(err)
			}
		}
		return Success()
	}

	item := q.Clone()
	for key, v := range attrs {
		item[key] = v
	}
	if _, ok := item[AttrAccount]; !ok {
		return Failed(CodeParam, errors.New("keyring items require an account"))
	}
	key, err := itemKey(item)
	if err != nil {
		return Failed(CodeParam, err)
	}

	_, err = k.ring.Get(key)
	switch {
	case err == nil:
		return Other(CodeDuplicateItem)
	case !errors.Is(err, keyring.ErrKeyNotFound):
		return keyringStatus(err)
	}

	label := item.String(AttrLabel)
	if label == "" {
		label = groupName(item) + ": " + item.String(AttrAccount)
	}
	return keyringStatus(k.ring.Set(keyring.Item{
		Key:   key,
		Data:  item.Data(),
		Label: label,
	}))
}

func (k *Keyring) Delete(q Query) Status {
	keys, st := k.matching(q)
	if !st.OK() {
		return st
	}
	for _, key := range keys {
		if err := k.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return keyringStatus(err)
		}
	}
	return Success()
}

func (k *Keyring) Describe(code int32) (string, bool) {
	return Describe(code)
}

// matching returns the item keys q selects, or a not-found status.
func (k *Keyring) matching(q Query) ([]string, Status) {
	prefix, err := groupPrefix(q)
	if err != nil {
		return nil, Failed(CodeParam, err)
	}

	if _, ok := q[AttrAccount]; ok {
		key := prefix + url.PathEscape(q.String(AttrAccount))
		if _, err := k.ring.Get(key); err != nil {
			return nil, keyringStatus(err)
		}
		return []string{key}, Success()
	}

	all, err := k.ring.Keys()
	if err != nil {
		return nil, keyringStatus(err)
	}
	var keys []string
	for _, key := range all {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, NotFound()
	}
	if q[AttrMatchLimit] == MatchLimitOne {
		keys = keys[:1]
	}
	return keys, Success()
}

func itemKey(q Query) (string, error) {
	prefix, err := groupPrefix(q)
	if err != nil {
		return "", err
	}
	return prefix + url.PathEscape(q.String(AttrAccount)), nil
}

func groupPrefix(q Query) (string, error) {
	var parts []string
	switch q[AttrClass] {
	case ClassGenericPassword:
		parts = []string{string(ClassGenericPassword), q.String(AttrService)}
	case ClassInternetPassword:
		parts = []string{string(ClassInternetPassword), q.String(AttrProtocol), q.String(AttrServer), q.String(AttrPath)}
	default:
		return "", fmt.Errorf("unknown item class %v", q[AttrClass])
	}
	parts = append(parts, q.String(AttrAccessGroup))

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(url.PathEscape(p))
		b.WriteByte('/')
	}
	return b.String(), nil
}

func groupName(q Query) string {
	if s := q.String(AttrService); s != "" {
		return s
	}
	return q.String(AttrServer)
}

func keyringStatus(err error) Status {
	switch {
	case err == nil:
		return Success()
	case errors.Is(err, keyring.ErrKeyNotFound):
		return NotFound()
	case errors.Is(err, keyring.ErrNoAvailImpl):
		return Failed(CodeNotAvailable, err)
	}
	return Failed(CodeIO, err)
}
