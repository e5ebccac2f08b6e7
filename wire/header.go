package wire

import "strings"

// HeaderMap maps lower-cased header names to their values. A name that
// appears on the wire multiple times has its values joined with ", " in
// arrival order. Absence of a key means the header was never sent.
type HeaderMap map[string]string

func (h HeaderMap) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

func (h HeaderMap) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// Set overwrites any existing value of name.
func (h HeaderMap) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

// Add appends value to an existing entry with a ", " separator, or
// inserts it fresh.
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.2.2
func (h HeaderMap) Add(name, value string) {
	name = strings.ToLower(name)
	if old, ok := h[name]; ok {
		value = old + ", " + value
	}
	h[name] = value
}

func (h HeaderMap) Del(name string) {
	delete(h, strings.ToLower(name))
}

func (h HeaderMap) Clone() HeaderMap {
	clone := make(HeaderMap, len(h))
	for k, v := range h {
		clone[k] = v
	}
	return clone
}
