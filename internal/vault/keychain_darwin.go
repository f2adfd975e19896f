//go:build darwin

package vault

import (
	"errors"
	"fmt"

	gokeychain "github.com/keybase/go-keychain"
)

// Security framework attribute keys that go-keychain has no setter for.
const (
	secAttrServer   = "srvr"
	secAttrProtocol = "ptcl"
	secAttrPath     = "path"
)

// Keychain is a Vault backed by the macOS Keychain through the Security
// framework's SecItem API.
type Keychain struct{}

// NewKeychain returns the system Keychain vault.
func NewKeychain() (*Keychain, error) {
	return &Keychain{}, nil
}

func (k *Keychain) Probe(q Query) Result {
	item, err := toItem(q)
	if err != nil {
		return Result{Status: Failed(CodeParam, err)}
	}
	if _, ok := q[AttrMatchLimit]; !ok {
		item.SetMatchLimit(gokeychain.MatchLimitOne)
	}
	if !q.Bool(AttrReturnData) {
		item.SetReturnAttributes(true)
	}

	results, err := gokeychain.QueryItem(item)
	if err != nil {
		return Result{Status: statusOf(err)}
	}
	// QueryItem reports errSecItemNotFound as an empty result set.
	if len(results) == 0 {
		return Result{Status: NotFound()}
	}
	return Result{Status: Success(), Data: results[0].Data}
}

func (k *Keychain) Write(q Query, attrs Query, update bool) Status {
	if update {
		query, err := toItem(q)
		if err != nil {
			return Failed(CodeParam, err)
		}
		change, err := toItem(attrs)
		if err != nil {
			return Failed(CodeParam, err)
		}
		return statusOf(gokeychain.UpdateItem(query, change))
	}

	item, err := toItem(q)
	if err != nil {
		return Failed(CodeParam, err)
	}
	if err := applyAttrs(&item, attrs); err != nil {
		return Failed(CodeParam, err)
	}
	// Label makes the item readable in Keychain Access.app.
	if service, account := q.String(AttrService), q.String(AttrAccount); service != "" && account != "" && q.String(AttrLabel) == "" {
		item.SetLabel(fmt.Sprintf("%s: %s", service, account))
	}
	return statusOf(gokeychain.AddItem(item))
}

// Delete removes every item matching q. SecItemDelete on the file-based
// keychain removes a single match per call, so a group query is repeated
// until nothing is left.
func (k *Keychain) Delete(q Query) Status {
	item, err := toItem(q)
	if err != nil {
		return Failed(CodeParam, err)
	}

	st := statusOf(gokeychain.DeleteItem(item))
	if st.Kind != KindSuccess || q.String(AttrAccount) != "" {
		return st
	}
	for {
		next := statusOf(gokeychain.DeleteItem(item))
		switch next.Kind {
		case KindSuccess:
			continue
		case KindNotFound:
			return st
		case KindOther:
			return next
		}
	}
}

func (k *Keychain) Describe(code int32) (string, bool) {
	return Describe(code)
}

func statusOf(err error) Status {
	if err == nil {
		return Success()
	}
	if errors.Is(err, gokeychain.ErrorItemNotFound) {
		return NotFound()
	}
	var kerr gokeychain.Error
	if errors.As(err, &kerr) {
		return Failed(int32(kerr), err)
	}
	return Failed(CodeIO, err)
}

func toItem(q Query) (gokeychain.Item, error) {
	item := gokeychain.NewItem()
	if err := applyAttrs(&item, q); err != nil {
		return item, err
	}
	return item, nil
}

func applyAttrs(item *gokeychain.Item, q Query) error {
	for key, v := range q {
		switch key {
		case AttrClass:
			switch v {
			case ClassGenericPassword:
				item.SetSecClass(gokeychain.SecClassGenericPassword)
			case ClassInternetPassword:
				item.SetSecClass(gokeychain.SecClassInternetPassword)
			default:
				return fmt.Errorf("unknown item class %v", v)
			}
		case AttrService:
			item.SetService(q.String(key))
		case AttrAccount:
			// go-keychain drops empty string attributes, which would widen
			// the query to every account in the group.
			if q.String(key) == "" {
				return errors.New("empty account")
			}
			item.SetAccount(q.String(key))
		case AttrAccessGroup:
			item.SetAccessGroup(q.String(key))
		case AttrLabel:
			item.SetLabel(q.String(key))
		case AttrServer:
			item.SetString(secAttrServer, q.String(key))
		case AttrProtocol:
			item.SetString(secAttrProtocol, q.String(key))
		case AttrPath:
			item.SetString(secAttrPath, q.String(key))
		case AttrData:
			item.SetData(q.Data())
		case AttrAccessible:
			a, err := accessible(v)
			if err != nil {
				return err
			}
			item.SetAccessible(a)
		case AttrSynchronizable:
			if q.Bool(key) {
				item.SetSynchronizable(gokeychain.SynchronizableYes)
			} else {
				item.SetSynchronizable(gokeychain.SynchronizableNo)
			}
		case AttrMatchLimit:
			switch v {
			case MatchLimitOne:
				item.SetMatchLimit(gokeychain.MatchLimitOne)
			case MatchLimitAll:
				item.SetMatchLimit(gokeychain.MatchLimitAll)
			default:
				return fmt.Errorf("unknown match limit %v", v)
			}
		case AttrReturnAttributes:
			item.SetReturnAttributes(q.Bool(key))
		case AttrReturnData:
			item.SetReturnData(q.Bool(key))
		default:
			return fmt.Errorf("unsupported attribute %q", key)
		}
	}
	return nil
}

func accessible(v any) (gokeychain.Accessible, error) {
	switch v {
	case AccessibleWhenUnlocked:
		return gokeychain.AccessibleWhenUnlocked, nil
	case AccessibleWhenUnlockedThisDeviceOnly:
		return gokeychain.AccessibleWhenUnlockedThisDeviceOnly, nil
	case AccessibleAfterFirstUnlock:
		return gokeychain.AccessibleAfterFirstUnlock, nil
	case AccessibleAfterFirstUnlockThisDeviceOnly:
		return gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly, nil
	}
	return gokeychain.AccessibleDefault, fmt.Errorf("unknown accessibility %v", v)
}
