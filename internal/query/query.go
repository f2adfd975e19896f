// Package query builds the base vault queries that identify a group of
// credentials. A store adds the account to the base query on every call.
package query

import "github.com/benaskins/keystore/internal/vault"

// Queryable produces the base query for a vault group. The returned map is
// fresh on every call and never contains an account.
type Queryable interface {
	BaseQuery() vault.Query
}

// GenericPassword addresses generic password items for one service.
type GenericPassword struct {
	Service        string
	AccessGroup    string
	Accessible     vault.Accessible
	Synchronizable bool
}

func (g GenericPassword) BaseQuery() vault.Query {
	q := vault.Query{
		vault.AttrClass:          vault.ClassGenericPassword,
		vault.AttrService:        g.Service,
		vault.AttrSynchronizable: g.Synchronizable,
	}
	if g.Accessible != "" {
		q[vault.AttrAccessible] = g.Accessible
	}
	if g.AccessGroup != "" {
		q[vault.AttrAccessGroup] = g.AccessGroup
	}
	return q
}

// InternetPassword addresses internet password items for one server.
type InternetPassword struct {
	Server      string
	Protocol    vault.Protocol
	Path        string
	AccessGroup string
	Accessible  vault.Accessible
}

func (i InternetPassword) BaseQuery() vault.Query {
	q := vault.Query{
		vault.AttrClass:  vault.ClassInternetPassword,
		vault.AttrServer: i.Server,
	}
	if i.Protocol != "" {
		q[vault.AttrProtocol] = i.Protocol
	}
	if i.Path != "" {
		q[vault.AttrPath] = i.Path
	}
	if i.Accessible != "" {
		q[vault.AttrAccessible] = i.Accessible
	}
	if i.AccessGroup != "" {
		q[vault.AttrAccessGroup] = i.AccessGroup
	}
	return q
}
