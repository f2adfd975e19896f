// Package keychain stores, retrieves and deletes named secrets in a
// platform credential vault.
//
// A Store combines a query.Queryable, which names the vault group (service,
// accessibility, access group), with a vault.Vault. Every operation clones
// the group's base query, adds the account and makes one live round-trip to
// the vault. Nothing is cached.
//
// Single-item operations need a non-empty account. Values are stored as
// UTF-8. "Not found" is not an error: GetValue reports absence and the
// remove operations treat it as success.
package keychain

import (
	"github.com/benaskins/keystore/internal/query"
	"github.com/benaskins/keystore/internal/vault"
)

// SecretStore is the set of operations offered to callers.
type SecretStore interface {
	SetValue(value, account string) error
	GetValue(account string) (string, bool, error)
	RemoveValue(account string) error
	RemoveAllValues() error
}

var _ SecretStore = (*Store)(nil)

// Store is a stateless facade over a vault group. It is safe for concurrent
// use to the extent the vault is.
type Store struct {
	queries query.Queryable
	vault   vault.Vault
}

// New creates a Store for the group described by queries.
func New(queries query.Queryable, v vault.Vault) *Store {
	return &Store{queries: queries, vault: v}
}

// SetValue stores value for account, adding the item or replacing the value
// of an existing one.
//
// The existence probe and the following write are separate vault calls. Two
// concurrent SetValue calls for a new account can both see it missing; the
// vault then rejects the second add with errSecDuplicateItem, which is
// returned as a *VaultError.
func (s *Store) SetValue(value, account string) error {
	q, err := s.accountQuery(account)
	if err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}

	attrs := vault.Query{vault.AttrData: data}

	probe := s.vault.Probe(q)
	var st vault.Status
	switch probe.Status.Kind {
	case vault.KindSuccess:
		st = s.vault.Write(q, attrs, true)
	case vault.KindNotFound:
		st = s.vault.Write(q, attrs, false)
	default:
		return s.vaultError(probe.Status)
	}
	if !st.OK() {
		return s.vaultError(st)
	}
	return nil
}

// GetValue returns the value stored for account. ok is false when the vault
// has no such item.
func (s *Store) GetValue(account string) (value string, ok bool, err error) {
	q, err := s.accountQuery(account)
	if err != nil {
		return "", false, err
	}
	q[vault.AttrMatchLimit] = vault.MatchLimitOne
	q[vault.AttrReturnAttributes] = true
	q[vault.AttrReturnData] = true

	res := s.vault.Probe(q)
	switch res.Status.Kind {
	case vault.KindSuccess:
		v, err := decode(res.Data)
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	case vault.KindNotFound:
		return "", false, nil
	default:
		return "", false, s.vaultError(res.Status)
	}
}

// RemoveValue deletes the item for account. Removing a missing item succeeds.
func (s *Store) RemoveValue(account string) error {
	q, err := s.accountQuery(account)
	if err != nil {
		return err
	}
	return s.remove(q)
}

// RemoveAllValues deletes every item in the group.
func (s *Store) RemoveAllValues() error {
	return s.remove(s.queries.BaseQuery())
}

func (s *Store) remove(q vault.Query) error {
	st := s.vault.Delete(q)
	switch st.Kind {
	case vault.KindSuccess, vault.KindNotFound:
		return nil
	default:
		return s.vaultError(st)
	}
}

// accountQuery returns a private copy of the base query with account set.
// An empty account is rejected with errSecParam before any vault call.
func (s *Store) accountQuery(account string) (vault.Query, error) {
	if account == "" {
		return nil, s.vaultError(vault.Failed(vault.CodeParam, ErrEmptyAccount))
	}
	return s.queries.BaseQuery().With(vault.AttrAccount, account), nil
}

func (s *Store) vaultError(st vault.Status) error {
	msg, ok := s.vault.Describe(st.Code)
	if !ok || msg == "" {
		msg = unhandledError
	}
	return &VaultError{Code: st.Code, Message: msg, Cause: st.Cause}
}
