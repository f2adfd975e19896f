package vault

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeyring() (*Keyring, *keyring.ArrayKeyring) {
	ring := keyring.NewArrayKeyring(nil)
	return NewKeyring(ring), ring
}

func TestKeyringAddAndProbe(t *testing.T) {
	k, ring := newTestKeyring()

	require.True(t, k.Write(genericQuery("alice"), data("secret"), false).OK())

	item, err := ring.Get("generic_password/com.keystore.test//alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), item.Data)
	assert.Equal(t, "com.keystore.test: alice", item.Label)

	res := k.Probe(genericQuery("alice").With(AttrReturnData, true))
	require.True(t, res.Status.OK())
	assert.Equal(t, []byte("secret"), res.Data)
}

func TestKeyringProbeMissing(t *testing.T) {
	k, _ := newTestKeyring()
	assert.Equal(t, KindNotFound, k.Probe(genericQuery("alice")).Status.Kind)
}

func TestKeyringDuplicateAdd(t *testing.T) {
	k, _ := newTestKeyring()
	require.True(t, k.Write(genericQuery("alice"), data("a"), false).OK())

	st := k.Write(genericQuery("alice"), data("b"), false)
	assert.Equal(t, CodeDuplicateItem, st.Code)

	res := k.Probe(genericQuery("alice").With(AttrReturnData, true))
	assert.Equal(t, []byte("a"), res.Data)
}

func TestKeyringUpdate(t *testing.T) {
	k, _ := newTestKeyring()
	require.True(t, k.Write(genericQuery("alice"), data("a"), false).OK())

	require.True(t, k.Write(genericQuery("alice"), data("b"), true).OK())
	res := k.Probe(genericQuery("alice").With(AttrReturnData, true))
	assert.Equal(t, []byte("b"), res.Data)

	assert.Equal(t, KindNotFound, k.Write(genericQuery("bob"), data("b"), true).Kind)
}

func TestKeyringAddRequiresAccount(t *testing.T) {
	k, _ := newTestKeyring()
	st := k.Write(genericQuery(""), data("a"), false)
	assert.Equal(t, CodeParam, st.Code)
}

func TestKeyringDeleteAccountAndGroup(t *testing.T) {
	k, ring := newTestKeyring()
	require.True(t, k.Write(genericQuery("alice"), data("a"), false).OK())
	require.True(t, k.Write(genericQuery("bob"), data("b"), false).OK())
	other := Query{AttrClass: ClassGenericPassword, AttrService: "com.other", AttrAccount: "carol"}
	require.True(t, k.Write(other, data("c"), false).OK())

	assert.True(t, k.Delete(genericQuery("alice")).OK())
	assert.Equal(t, KindNotFound, k.Delete(genericQuery("alice")).Kind)

	assert.True(t, k.Delete(genericQuery("")).OK())
	assert.Equal(t, KindNotFound, k.Delete(genericQuery("")).Kind)

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"generic_password/com.other//carol"}, keys)
}

func TestKeyringEscapesKeyParts(t *testing.T) {
	k, ring := newTestKeyring()
	q := Query{
		AttrClass:    ClassInternetPassword,
		AttrServer:   "api.example.com",
		AttrProtocol: ProtocolHTTPS,
		AttrPath:     "/v1",
		AttrAccount:  "deploy/bot",
	}
	require.True(t, k.Write(q, data("t"), false).OK())

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"internet_password/htps/api.example.com/%2Fv1//deploy%2Fbot"}, keys)
}

func TestKeyringUnknownClass(t *testing.T) {
	k, _ := newTestKeyring()
	res := k.Probe(Query{AttrService: "svc", AttrAccount: "alice"})
	assert.Equal(t, CodeParam, res.Status.Code)
}

type failingRing struct {
	keyring.Keyring
	err error
}

func (f failingRing) Get(string) (keyring.Item, error) { return keyring.Item{}, f.err }

func TestKeyringBackendErrorKeepsCause(t *testing.T) {
	cause := errors.New("dbus: no reply")
	k := NewKeyring(failingRing{Keyring: keyring.NewArrayKeyring(nil), err: cause})

	st := k.Probe(genericQuery("alice")).Status
	assert.Equal(t, CodeIO, st.Code)
	assert.ErrorIs(t, st.Cause, cause)
}

func TestKeyringEmptyAccountNamesNoItem(t *testing.T) {
	k, ring := newTestKeyring()
	require.True(t, k.Write(genericQuery("alice"), data("a"), false).OK())
	require.True(t, k.Write(genericQuery("bob"), data("b"), false).OK())

	empty := genericQuery("").With(AttrAccount, "")

	res := k.Probe(empty.With(AttrReturnData, true))
	assert.Equal(t, KindNotFound, res.Status.Kind)
	assert.Nil(t, res.Data)

	assert.Equal(t, KindNotFound, k.Write(empty, data("clobber"), true).Kind)
	assert.Equal(t, KindNotFound, k.Delete(empty).Kind)

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"generic_password/com.keystore.test//alice",
		"generic_password/com.keystore.test//bob",
	}, keys)

	res = k.Probe(genericQuery("alice").With(AttrReturnData, true))
	assert.Equal(t, []byte("a"), res.Data)
}
