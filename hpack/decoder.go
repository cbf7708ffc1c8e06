package hpack

import (
	"bytes"

	"golang.org/x/net/http/httpguts"
)

// pseudoKind classifies which family of pseudo-headers a block has seen so
// far, enforcing RFC 7540 §8.1.2.1's rule that request and response
// pseudo-headers never mix within one header block.
type pseudoKind int

const (
	pseudoNone pseudoKind = iota
	pseudoRequest
	pseudoResponse
)

var requestPseudoHeaders = map[string]bool{
	":method":    true,
	":scheme":    true,
	":authority": true,
	":path":      true,
}

var responsePseudoHeaders = map[string]bool{
	":status": true,
}

// Decoder parses HPACK-compressed header block fragments and maintains the
// dynamic table mirroring the peer encoder's.
type Decoder struct {
	table *table

	// maxHeaderListSize bounds the cumulative decoded size (RFC 7541 §4.1
	// accounting) of one header block. Zero means unlimited.
	maxHeaderListSize uint32

	// ceiling is the maximum dynamic table size this decoder will accept
	// from the peer's encoder, i.e. the HEADER_TABLE_SIZE we've advertised.
	ceiling uint32

	// requireSizeUpdate is set when ceiling is lowered and cleared once the
	// peer has acknowledged it with a leading Dynamic Table Size Update.
	requireSizeUpdate bool

	// per-block state, reset by startBlock.
	atBlockStart   bool
	headerListSize uint32
	sawRegular     bool
	pseudoSeen     pseudoKind
	validationErr  error
}

// NewDecoder creates a Decoder whose dynamic table starts at
// maxDynamicTableSize bytes, which also becomes the initial ceiling on any
// table size the peer's encoder may request.
func NewDecoder(maxDynamicTableSize uint32) *Decoder {
	return &Decoder{
		table:   newTable(maxDynamicTableSize),
		ceiling: maxDynamicTableSize,
	}
}

// SetMaxHeaderListSize bounds the decoded size of a header block; exceeding
// it surfaces as a ValidationError from Finish, not an immediate abort, so
// the dynamic table stays in sync with the peer regardless (spec §4.4).
func (d *Decoder) SetMaxHeaderListSize(max uint32) { d.maxHeaderListSize = max }

// SetMaxDynamicTableSize lowers or raises the ceiling this decoder enforces
// on the peer encoder's dynamic table size. Lowering it requires the next
// header block to begin with a matching Dynamic Table Size Update.
func (d *Decoder) SetMaxDynamicTableSize(max uint32) {
	if max < d.ceiling {
		d.requireSizeUpdate = true
	}
	d.ceiling = max
}

func (d *Decoder) startBlock() {
	d.atBlockStart = true
	d.headerListSize = 0
	d.sawRegular = false
	d.pseudoSeen = pseudoNone
	d.validationErr = nil
}

// DecodeBlock parses one complete header block fragment (already
// reassembled from HEADERS + any CONTINUATION frames) and returns the
// decoded fields in wire order.
//
// A non-nil error of type *CompressionError means the dynamic table may no
// longer be in sync with the peer; the connection must be torn down. A
// non-nil error of type *ValidationError means the block parsed and the
// dynamic table updated correctly, but the header set itself is invalid;
// only the stream that carried it needs to be reset.
func (d *Decoder) DecodeBlock(block []byte) ([]HeaderField, error) {
	d.startBlock()

	var fields []HeaderField
	buf := block

	for len(buf) > 0 {
		b := buf[0]

		switch {
		case b&0x80 == 0x80: // Indexed Header Field, RFC 7541 §6.1
			idx, n, err := decodeInt(buf, 7)
			if err != nil {
				return nil, err
			}
			if idx == 0 {
				return nil, newCompressionError("indexed header field index 0")
			}
			buf = buf[n:]
			if err := d.enterRepresentation(); err != nil {
				return nil, err
			}
			hf, ok := d.table.get(idx)
			if !ok {
				return nil, newCompressionError("index %d not in addressable space", idx)
			}
			d.observe(hf)
			fields = append(fields, hf)

		case b&0xC0 == 0x40: // Literal with Incremental Indexing, RFC 7541 §6.2.1
			hf, n, err := d.readLiteral(buf, 6)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			if err := d.enterRepresentation(); err != nil {
				return nil, err
			}
			d.table.addDynamic(hf.Name, hf.Value)
			d.observe(hf)
			fields = append(fields, hf)

		case b&0xE0 == 0x20: // Dynamic Table Size Update, RFC 7541 §6.3
			if !d.atBlockStart {
				return nil, newCompressionError("dynamic table size update outside block start")
			}
			v, n, err := decodeInt32(buf, 5)
			if err != nil {
				return nil, err
			}
			if v > d.ceiling {
				return nil, newCompressionError("dynamic table size update %d exceeds limit %d", v, d.ceiling)
			}
			d.table.setMaxDynamicSize(v)
			d.requireSizeUpdate = false
			buf = buf[n:]
			continue

		case b&0xF0 == 0x10: // Literal Never Indexed, RFC 7541 §6.2.3
			hf, n, err := d.readLiteral(buf, 4)
			if err != nil {
				return nil, err
			}
			hf.Sensitive = true
			buf = buf[n:]
			if err := d.enterRepresentation(); err != nil {
				return nil, err
			}
			d.observe(hf)
			fields = append(fields, hf)

		default: // Literal without Indexing, RFC 7541 §6.2.2
			hf, n, err := d.readLiteral(buf, 4)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			if err := d.enterRepresentation(); err != nil {
				return nil, err
			}
			d.observe(hf)
			fields = append(fields, hf)
		}
	}

	return fields, d.finish()
}

// enterRepresentation marks that a non-size-update representation is about
// to be processed, failing fast if a required leading size update never
// arrived.
func (d *Decoder) enterRepresentation() error {
	if d.atBlockStart && d.requireSizeUpdate {
		return newCompressionError("max dynamic table size change required")
	}
	d.atBlockStart = false
	return nil
}

// observe runs the validation layer against one decoded field: pseudo vs
// regular classification, pseudo-header ordering and mixing, and
// cumulative size accounting. Violations are latched (see DecodeBlock's
// doc comment) rather than aborting immediately, so the dynamic table
// stays correct for the rest of the block.
func (d *Decoder) observe(hf HeaderField) {
	d.headerListSize += hf.Size()
	if d.maxHeaderListSize > 0 && d.headerListSize > d.maxHeaderListSize && d.validationErr == nil {
		d.validationErr = newValidationError("header list size %d exceeds maximum %d", d.headerListSize, d.maxHeaderListSize)
	}

	if len(hf.Name) == 0 || hf.Name[0] != ':' {
		if !httpguts.ValidHeaderFieldName(hf.Name) && d.validationErr == nil {
			d.validationErr = newValidationError("invalid header field name %q", hf.Name)
		}
		if !httpguts.ValidHeaderFieldValue(hf.Value) && d.validationErr == nil {
			d.validationErr = newValidationError("invalid header field value for %q", hf.Name)
		}
		d.sawRegular = true
		return
	}

	var kind pseudoKind
	switch {
	case requestPseudoHeaders[hf.Name]:
		kind = pseudoRequest
	case responsePseudoHeaders[hf.Name]:
		kind = pseudoResponse
	default:
		if d.validationErr == nil {
			d.validationErr = newValidationError("unknown pseudo-header %q", hf.Name)
		}
		return
	}

	if d.sawRegular && d.validationErr == nil {
		d.validationErr = newValidationError("pseudo-header %q after regular header", hf.Name)
	}
	if d.pseudoSeen != pseudoNone && d.pseudoSeen != kind && d.validationErr == nil {
		d.validationErr = newValidationError("mixed request/response pseudo-headers")
	}
	if d.pseudoSeen == pseudoNone {
		d.pseudoSeen = kind
	}
}

func (d *Decoder) finish() error {
	return d.validationErr
}

func (d *Decoder) readLiteral(buf []byte, prefixBits int) (HeaderField, int, error) {
	idx, n, err := decodeInt(buf, prefixBits)
	if err != nil {
		return HeaderField{}, 0, err
	}
	total := n

	var name string
	if idx == 0 {
		s, m, err := readStringLiteral(buf[total:])
		if err != nil {
			return HeaderField{}, 0, err
		}
		name = s
		total += m
	} else {
		hf, ok := d.table.get(idx)
		if !ok {
			return HeaderField{}, 0, newCompressionError("index %d not in addressable space", idx)
		}
		name = hf.Name
	}

	value, m, err := readStringLiteral(buf[total:])
	if err != nil {
		return HeaderField{}, 0, err
	}
	total += m

	return HeaderField{Name: name, Value: value}, total, nil
}

func readStringLiteral(buf []byte) (string, int, error) {
	if len(buf) == 0 {
		return "", 0, newCompressionError("string literal: empty buffer")
	}
	huffmanCoded := buf[0]&0x80 != 0
	length, n, err := decodeInt32(buf, 7)
	if err != nil {
		return "", 0, err
	}
	total := n

	if uint32(len(buf)-total) < length {
		return "", 0, newCompressionError("string literal of length %d exceeds remaining buffer", length)
	}
	raw := buf[total : total+int(length)]
	total += int(length)

	if !huffmanCoded {
		return string(raw), total, nil
	}

	var out bytes.Buffer
	if err := HuffmanDecode(&out, raw); err != nil {
		return "", 0, err
	}
	return out.String(), total, nil
}
