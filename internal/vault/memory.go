package vault

import (
	"bytes"
	"sync"
)

// primaryKey lists the attributes that make an item unique within a class,
// mirroring the keychain's uniqueness constraint.
var primaryKey = []string{AttrClass, AttrService, AttrServer, AttrProtocol, AttrPath, AttrAccount, AttrAccessGroup}

// Memory is an in-process Vault with keychain semantics. It is used by
// tests and by the memory backend; nothing survives a restart.
type Memory struct {
	mu    sync.Mutex
	items []Query
}

// NewMemory creates an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Probe(q Query) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if !matches(item, q) {
			continue
		}
		res := Result{Status: Success()}
		if q.Bool(AttrReturnData) {
			res.Data = bytes.Clone(item.Data())
		}
		return res
	}
	return Result{Status: NotFound()}
}

func (m *Memory) Write(q Query, attrs Query, update bool) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if update {
		n := 0
		for _, item := range m.items {
			if !matches(item, q) {
				continue
			}
			assign(item, attrs)
			n++
		}
		if n == 0 {
			return NotFound()
		}
		return Success()
	}

	item := make(Query, len(q)+len(attrs))
	assign(item, q)
	assign(item, attrs)
	for _, existing := range m.items {
		if samePrimaryKey(existing, item) {
			return Other(CodeDuplicateItem)
		}
	}
	m.items = append(m.items, item)
	return Success()
}

func (m *Memory) Delete(q Query) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if matches(item, q) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	clear(m.items[len(kept):])
	m.items = kept
	if removed == 0 {
		return NotFound()
	}
	return Success()
}

func (m *Memory) Describe(code int32) (string, bool) {
	return Describe(code)
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func matches(item, q Query) bool {
	for k, want := range q {
		if IsFlag(k) || k == AttrData {
			continue
		}
		if item[k] != want {
			return false
		}
	}
	return true
}

func samePrimaryKey(a, b Query) bool {
	for _, k := range primaryKey {
		if a.String(k) != b.String(k) {
			return false
		}
	}
	return true
}

func assign(dst, src Query) {
	for k, v := range src {
		if IsFlag(k) {
			continue
		}
		if b, ok := v.([]byte); ok {
			v = bytes.Clone(b)
		}
		dst[k] = v
	}
}
