package hpack

// Static and dynamic header tables, RFC 7541 §2.3 and Appendix A.

// staticTable holds the 61 fixed entries; index 0 here corresponds to
// HPACK index 1.
var staticTable = [61]HeaderField{
	{Name: ":authority"},
	{Name: ":method", Value: "GET"},
	{Name: ":method", Value: "POST"},
	{Name: ":path", Value: "/"},
	{Name: ":path", Value: "/index.html"},
	{Name: ":scheme", Value: "http"},
	{Name: ":scheme", Value: "https"},
	{Name: ":status", Value: "200"},
	{Name: ":status", Value: "204"},
	{Name: ":status", Value: "206"},
	{Name: ":status", Value: "304"},
	{Name: ":status", Value: "400"},
	{Name: ":status", Value: "404"},
	{Name: ":status", Value: "500"},
	{Name: "accept-charset"},
	{Name: "accept-encoding", Value: "gzip, deflate"},
	{Name: "accept-language"},
	{Name: "accept-ranges"},
	{Name: "accept"},
	{Name: "access-control-allow-origin"},
	{Name: "age"},
	{Name: "allow"},
	{Name: "authorization"},
	{Name: "cache-control"},
	{Name: "content-disposition"},
	{Name: "content-encoding"},
	{Name: "content-language"},
	{Name: "content-length"},
	{Name: "content-location"},
	{Name: "content-range"},
	{Name: "content-type"},
	{Name: "cookie"},
	{Name: "date"},
	{Name: "etag"},
	{Name: "expect"},
	{Name: "expires"},
	{Name: "from"},
	{Name: "host"},
	{Name: "if-match"},
	{Name: "if-modified-since"},
	{Name: "if-none-match"},
	{Name: "if-range"},
	{Name: "if-unmodified-since"},
	{Name: "last-modified"},
	{Name: "link"},
	{Name: "location"},
	{Name: "max-forwards"},
	{Name: "proxy-authenticate"},
	{Name: "proxy-authorization"},
	{Name: "range"},
	{Name: "referer"},
	{Name: "refresh"},
	{Name: "retry-after"},
	{Name: "server"},
	{Name: "set-cookie"},
	{Name: "strict-transport-security"},
	{Name: "transfer-encoding"},
	{Name: "user-agent"},
	{Name: "vary"},
	{Name: "via"},
	{Name: "www-authenticate"},
}

// staticNameIndex maps a static-table header name to the lowest HPACK
// index (1-based) at which it appears, used by the encoder to find a
// name-only match quickly.
var staticNameIndex map[string]uint64

func init() {
	staticNameIndex = make(map[string]uint64, len(staticTable))
	for i := len(staticTable); i >= 1; i-- {
		staticNameIndex[staticTable[i-1].Name] = uint64(i)
	}
}

// dynamicTable is a FIFO-evicted, byte-size-bounded table of header fields
// added by incremental indexing, RFC 7541 §2.3.2. Entries are stored
// newest-last internally; HPACK index 1 (within the dynamic table's own
// numbering) is always the most recently added entry.
type dynamicTable struct {
	entries []HeaderField // oldest at index 0, newest at the end
	size    uint32
	maxSize uint32
}

func newDynamicTable(maxSize uint32) *dynamicTable {
	return &dynamicTable{maxSize: maxSize}
}

// add inserts a new entry, evicting from the oldest end until it fits. If
// the entry alone is larger than the capacity, the table is cleared and the
// entry is not inserted (RFC 7541 §4.4).
func (t *dynamicTable) add(name, value string) {
	sz := headerFieldSize(name, value)
	if sz > t.maxSize {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	t.entries = append(t.entries, HeaderField{Name: name, Value: value})
	t.size += sz
	t.evict()
}

func (t *dynamicTable) evict() {
	for t.size > t.maxSize && len(t.entries) > 0 {
		oldest := t.entries[0]
		t.size -= oldest.Size()
		t.entries = t.entries[1:]
	}
}

// setMaxSize applies a new capacity, evicting from the oldest end until the
// table fits (RFC 7541 §4.3).
func (t *dynamicTable) setMaxSize(max uint32) {
	t.maxSize = max
	if max == 0 {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	t.evict()
}

// len is the number of entries currently stored.
func (t *dynamicTable) len() int { return len(t.entries) }

// at returns the i'th entry using HPACK's 1-based, newest-first numbering
// within the dynamic table alone (i.e. not yet offset by the static table
// size).
func (t *dynamicTable) at(i uint64) (HeaderField, bool) {
	if i < 1 || i > uint64(len(t.entries)) {
		return HeaderField{}, false
	}
	return t.entries[len(t.entries)-int(i)], true
}

// find looks for an exact (name, value) match first, falling back to a
// name-only match; it reports the HPACK index (within the dynamic table's
// own numbering) and whether value also matched.
func (t *dynamicTable) find(name, value string) (idx uint64, nameMatch, valueMatch bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.Name != name {
			continue
		}
		pos := uint64(len(t.entries) - i)
		if !nameMatch {
			idx = pos
			nameMatch = true
		}
		if e.Value == value {
			return pos, true, true
		}
	}
	return idx, nameMatch, false
}

// table combines the static and dynamic tables behind HPACK's unified
// 1-based indexing scheme (RFC 7541 §2.3.3): indices 1..61 address the
// static table, indices beyond that address the dynamic table.
type table struct {
	dyn *dynamicTable
}

func newTable(maxDynamicSize uint32) *table {
	return &table{dyn: newDynamicTable(maxDynamicSize)}
}

func (t *table) get(idx uint64) (HeaderField, bool) {
	if idx < 1 {
		return HeaderField{}, false
	}
	if idx <= uint64(len(staticTable)) {
		return staticTable[idx-1], true
	}
	return t.dyn.at(idx - uint64(len(staticTable)))
}

// find returns the combined index for the best match: exact (name, value)
// if present, else a name-only match. The static table is preferred over
// the dynamic table at equal quality since it's cheaper for peers to keep
// warm and its indices never change.
func (t *table) find(name, value string) (idx uint64, nameMatch, valueMatch bool) {
	if si, ok := staticNameIndex[name]; ok {
		// Walk any same-named contiguous run in the static table looking for
		// an exact value match; the table is small so a linear scan is fine.
		for i := si; i <= uint64(len(staticTable)) && staticTable[i-1].Name == name; i++ {
			if staticTable[i-1].Value == value {
				return i, true, true
			}
		}
		idx, nameMatch = si, true
	}
	if dIdx, dName, dValue := t.dyn.find(name, value); dValue {
		return dIdx + uint64(len(staticTable)), true, true
	} else if !nameMatch && dName {
		idx = dIdx + uint64(len(staticTable))
		nameMatch = true
	}
	return idx, nameMatch, valueMatch
}

func (t *table) addDynamic(name, value string) { t.dyn.add(name, value) }

func (t *table) setMaxDynamicSize(max uint32) { t.dyn.setMaxSize(max) }

func (t *table) maxDynamicSize() uint32 { return t.dyn.maxSize }

func (t *table) dynamicSize() uint32 { return t.dyn.size }
