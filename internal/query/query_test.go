package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benaskins/keystore/internal/vault"
)

func TestGenericPasswordBaseQuery(t *testing.T) {
	g := GenericPassword{
		Service:    "com.keystore",
		Accessible: vault.AccessibleWhenUnlockedThisDeviceOnly,
	}

	q := g.BaseQuery()
	assert.Equal(t, vault.Query{
		vault.AttrClass:          vault.ClassGenericPassword,
		vault.AttrService:        "com.keystore",
		vault.AttrAccessible:     vault.AccessibleWhenUnlockedThisDeviceOnly,
		vault.AttrSynchronizable: false,
	}, q)
}

func TestGenericPasswordAccessGroup(t *testing.T) {
	q := GenericPassword{Service: "com.keystore", AccessGroup: "TEAMID.shared"}.BaseQuery()
	assert.Equal(t, "TEAMID.shared", q[vault.AttrAccessGroup])
	assert.NotContains(t, q, vault.AttrAccessible)
}

func TestInternetPasswordBaseQuery(t *testing.T) {
	q := InternetPassword{
		Server:   "api.example.com",
		Protocol: vault.ProtocolHTTPS,
		Path:     "/v1",
	}.BaseQuery()

	assert.Equal(t, vault.Query{
		vault.AttrClass:    vault.ClassInternetPassword,
		vault.AttrServer:   "api.example.com",
		vault.AttrProtocol: vault.ProtocolHTTPS,
		vault.AttrPath:     "/v1",
	}, q)
}

func TestBaseQueryIsFresh(t *testing.T) {
	builders := map[string]Queryable{
		"generic":  GenericPassword{Service: "com.keystore"},
		"internet": InternetPassword{Server: "example.com"},
	}
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			first := b.BaseQuery()
			first[vault.AttrAccount] = "alice"

			second := b.BaseQuery()
			assert.NotContains(t, second, vault.AttrAccount)
			assert.Equal(t, first[vault.AttrClass], second[vault.AttrClass])
		})
	}
}
