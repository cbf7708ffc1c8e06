package hpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicTableEvictsOldest(t *testing.T) {
	dt := newDynamicTable(100)
	dt.add("a", "1234567890123456789012345678901234567890") // ~72 bytes
	dt.add("b", "1234567890123456789012345678901234567890") // evicts "a"

	require.Equal(t, 1, dt.len())
	e, ok := dt.at(1)
	require.True(t, ok)
	assert.Equal(t, "b", e.Name)
}

func TestDynamicTableEntryLargerThanCapacityClearsTable(t *testing.T) {
	dt := newDynamicTable(50)
	dt.add("existing", "entry")
	require.Equal(t, 1, dt.len())

	dt.add("name", "a value so long it alone exceeds the fifty byte capacity of this table")
	assert.Equal(t, 0, dt.len())
	assert.Equal(t, uint32(0), dt.size)
}

func TestDynamicTableSetMaxSizeEvicts(t *testing.T) {
	dt := newDynamicTable(4096)
	dt.add("a", "short")
	dt.add("b", "short")
	require.Equal(t, 2, dt.len())

	dt.setMaxSize(0)
	assert.Equal(t, 0, dt.len())
	assert.Equal(t, uint32(0), dt.size)
}

func TestCombinedTableIndexing(t *testing.T) {
	tb := newTable(4096)
	tb.addDynamic("custom-key", "custom-value")

	// Static table entry 2 is `:method: GET`.
	hf, ok := tb.get(2)
	require.True(t, ok)
	assert.Equal(t, HeaderField{Name: ":method", Value: "GET"}, hf)

	// Dynamic entries are addressed starting right after the static table.
	hf, ok = tb.get(uint64(len(staticTable) + 1))
	require.True(t, ok)
	assert.Equal(t, HeaderField{Name: "custom-key", Value: "custom-value"}, hf)

	_, ok = tb.get(0)
	assert.False(t, ok)
}

func TestTableFindPrefersExactMatch(t *testing.T) {
	tb := newTable(4096)
	idx, nameMatch, valueMatch := tb.find(":method", "GET")
	require.True(t, nameMatch)
	require.True(t, valueMatch)
	assert.Equal(t, uint64(2), idx)

	idx, nameMatch, valueMatch = tb.find(":method", "PATCH")
	require.True(t, nameMatch)
	require.False(t, valueMatch)
	assert.True(t, idx == 2 || idx == 3)
}
