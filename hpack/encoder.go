package hpack

// Encoder turns a sequence of HeaderFields into an HPACK-compressed header
// block fragment, keeping a dynamic table in sync with a matching Decoder
// on the peer (RFC 7541 §3).
type Encoder struct {
	table *table

	// minSizeSinceLastBlock and sizeChanged track a pending
	// SetMaxDynamicTableSize call (or calls): RFC 7541 §4.2 requires that if
	// the table size was lowered and then raised again within one header
	// block boundary, the encoder emit the minimum observed size followed
	// by the final size, so the peer observes both transitions.
	minSizeSinceLastBlock uint32
	sizeChanged           bool

	// HuffmanDisabled turns off Huffman coding entirely; by default a
	// literal is Huffman-coded iff that's strictly shorter than raw.
	HuffmanDisabled bool
}

const maxUint32 = ^uint32(0)

// NewEncoder creates an Encoder whose dynamic table starts at
// maxDynamicTableSize bytes.
func NewEncoder(maxDynamicTableSize uint32) *Encoder {
	return &Encoder{
		table:                 newTable(maxDynamicTableSize),
		minSizeSinceLastBlock: maxUint32,
	}
}

// MaxDynamicTableSize reports the encoder's current local maximum.
func (e *Encoder) MaxDynamicTableSize() uint32 { return e.table.maxDynamicSize() }

// SetMaxDynamicTableSize records a new local maximum dynamic table size.
// The next call to WriteField (or EncodeFields) will prepend the dynamic
// table size update(s) required to communicate the change to the peer.
func (e *Encoder) SetMaxDynamicTableSize(max uint32) {
	if max < e.minSizeSinceLastBlock {
		e.minSizeSinceLastBlock = max
	}
	e.sizeChanged = true
	e.table.setMaxDynamicSize(max)
}

// EncodeFields encodes an ordered list of header fields into a single
// header block fragment.
func (e *Encoder) EncodeFields(fields []HeaderField) []byte {
	var dst []byte
	for _, f := range fields {
		dst = e.WriteField(dst, f)
	}
	return dst
}

// WriteField appends the HPACK encoding of one header field to dst,
// applying the policy from spec §4.3: sensitive fields are always
// literal-never-indexed; an exact (name, value) match is indexed; a
// name-only match emits a literal value under the matched name index and
// inserts into the dynamic table; otherwise both name and value are
// literal and the pair is inserted.
func (e *Encoder) WriteField(dst []byte, f HeaderField) []byte {
	if e.sizeChanged {
		e.sizeChanged = false
		if e.minSizeSinceLastBlock < e.table.maxDynamicSize() {
			dst = appendDynamicTableSizeUpdate(dst, e.minSizeSinceLastBlock)
		}
		dst = appendDynamicTableSizeUpdate(dst, e.table.maxDynamicSize())
		e.minSizeSinceLastBlock = maxUint32
	}

	if f.Sensitive {
		return e.writeLiteral(dst, f.Name, f.Value, 0x10, 4)
	}

	idx, nameMatch, valueMatch := e.table.find(f.Name, f.Value)
	if valueMatch {
		return appendInt(dst, 0x80, 7, idx)
	}
	if nameMatch {
		dst = e.writeLiteral(dst, f.Name, f.Value, 0x40, 6)
		e.table.addDynamic(f.Name, f.Value)
		return dst
	}
	dst = e.writeLiteralFull(dst, f.Name, f.Value, 0x40, 6)
	e.table.addDynamic(f.Name, f.Value)
	return dst
}

// writeLiteral emits a literal representation whose name is indexed (idx
// from table.find) and whose value is a string literal. When idx is 0 the
// name itself has no match and must be written literally too.
func (e *Encoder) writeLiteral(dst []byte, name, value string, headerByte byte, prefixBits int) []byte {
	idx, nameMatch, _ := e.table.find(name, value)
	if !nameMatch {
		return e.writeLiteralFull(dst, name, value, headerByte, prefixBits)
	}
	dst = appendInt(dst, headerByte, prefixBits, idx)
	return e.appendString(dst, value)
}

func (e *Encoder) writeLiteralFull(dst []byte, name, value string, headerByte byte, prefixBits int) []byte {
	dst = appendInt(dst, headerByte, prefixBits, 0)
	dst = e.appendString(dst, name)
	return e.appendString(dst, value)
}

// appendString writes a string literal, preferring Huffman coding iff it's
// strictly shorter than the raw representation (spec §4.3).
func (e *Encoder) appendString(dst []byte, s string) []byte {
	if !e.HuffmanDisabled {
		if hlen := HuffmanEncodedByteLen(s); hlen < len(s) {
			dst = appendInt(dst, 0x80, 7, uint64(hlen))
			return HuffmanEncode(dst, s)
		}
	}
	dst = appendInt(dst, 0, 7, uint64(len(s)))
	return append(dst, s...)
}

func appendDynamicTableSizeUpdate(dst []byte, max uint32) []byte {
	return appendInt(dst, 0x20, 5, uint64(max))
}
