package hpack

import "strings"

// HeaderField is a single (name, value) pair as defined by RFC 7541 §2.1.
// Sensitive fields are always emitted as literal-never-indexed and never
// placed in the dynamic table.
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool
}

// NewHeaderField builds a HeaderField, lowercasing the name as HTTP/2
// requires (RFC 7540 §8.1.2).
func NewHeaderField(name, value string) HeaderField {
	return HeaderField{Name: strings.ToLower(name), Value: value}
}

// Size is the RFC 7541 §4.1 accounting size of the field: the length of its
// name and value plus 32 bytes of overhead.
func (h HeaderField) Size() uint32 {
	return uint32(len(h.Name) + len(h.Value) + 32)
}

func headerFieldSize(name, value string) uint32 {
	return uint32(len(name) + len(value) + 32)
}
