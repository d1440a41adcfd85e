package memtable

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestMemTable(t *testing.T) {
	m := New(16 * 1024)

	m.SetNum("hdfc:swiggy", 11)
	m.SetNum("icici:coral", 12)

	n, ok := m.GetNum("hdfc:swiggy")
	assert.Equal(t, true, ok)
	assert.Equal(t, uint64(11), n)

	n, ok = m.GetNum("icici:coral")
	assert.Equal(t, true, ok)
	assert.Equal(t, uint64(12), n)

	n, ok = m.GetNum("sbi:pulse")
	assert.Equal(t, false, ok)
	assert.Equal(t, uint64(0), n)

	_ = m.cache.Set([]byte("key04"), []byte("aa"), 0)
	n, ok = m.GetNum("key04")
	assert.Equal(t, false, ok)
	assert.Equal(t, uint64(0), n)
}

func TestMemTable_Delete_And_Clear(t *testing.T) {
	m := New(16 * 1024)

	m.SetNum("a", 1)
	m.SetNum("b", 2)

	m.Delete("a")
	_, ok := m.GetNum("a")
	assert.Equal(t, false, ok)

	n, ok := m.GetNum("b")
	assert.Equal(t, true, ok)
	assert.Equal(t, uint64(2), n)

	m.Clear()
	_, ok = m.GetNum("b")
	assert.Equal(t, false, ok)
}
