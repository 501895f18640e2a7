package bedpe

import (
	"slices"
	"strings"
)

// Info is the key-value view of a semicolon-delimited annotation entry.
// Keys keep their order of first appearance. Flag keys (no '=') map to "".
type Info struct {
	keys   []string
	values map[string]string
}

// ParseInfo scans an annotation entry such as "SVTYPE=BND;AF=0.5;IMPRECISE".
// When a key repeats, the first occurrence wins.
func ParseInfo(s string) Info {
	info := Info{values: make(map[string]string)}
	if s == "" || s == "." {
		return info
	}

	for _, kv := range strings.Split(s, ";") {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		if _, seen := info.values[key]; seen {
			continue
		}
		info.keys = append(info.keys, key)
		info.values[key] = value
	}

	return info
}

// Get returns the raw value for key and whether the key is present.
func (in Info) Get(key string) (string, bool) {
	v, ok := in.values[key]
	return v, ok
}

// Has reports whether key is present.
func (in Info) Has(key string) bool {
	_, ok := in.values[key]
	return ok
}

// Keys returns the keys in their original order.
func (in Info) Keys() []string {
	return slices.Clone(in.keys)
}

// Len returns the number of distinct keys.
func (in Info) Len() int {
	return len(in.keys)
}
