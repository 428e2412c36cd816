package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenMapPutAndResolve(t *testing.T) {
	m := NewTokenMap()
	m.Put(101, "TCS")
	m.Put(202, "RELIANCE")

	sym, ok := m.SymbolFor(101)
	assert.True(t, ok)
	assert.Equal(t, "TCS", sym)

	token, ok := m.TokenFor("RELIANCE")
	assert.True(t, ok)
	assert.Equal(t, int64(202), token)
}

func TestTokenMapPutReplacesPriorMapping(t *testing.T) {
	m := NewTokenMap()
	m.Put(101, "TCS")
	m.Put(101, "INFY") // token reassigned to a different symbol

	_, ok := m.TokenFor("TCS")
	assert.False(t, ok, "old symbol must no longer resolve")

	sym, ok := m.SymbolFor(101)
	assert.True(t, ok)
	assert.Equal(t, "INFY", sym)
}

func TestTokenMapRemove(t *testing.T) {
	m := NewTokenMap()
	m.Put(101, "TCS")
	m.Remove("TCS")

	_, ok := m.SymbolFor(101)
	assert.False(t, ok)
	_, ok = m.TokenFor("TCS")
	assert.False(t, ok)
}
