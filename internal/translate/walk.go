package translate

import (
	"sort"
	"strconv"
	"strings"
)

// Step is one hop into a JSON tree: an object key or an array index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path addresses a value inside a decoded JSON tree.
type Path []Step

func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		b.WriteByte('.')
		b.WriteString(s.Key)
	}
	return b.String()
}

// Leaf is a string value and where it lives.
type Leaf struct {
	Path  Path
	Value string
}

// Leaves returns every string leaf of v. Object keys are visited in sorted
// order so the result is deterministic.
func Leaves(v any) []Leaf {
	var out []Leaf
	collect(v, nil, &out)
	return out
}

func collect(v any, prefix Path, out *[]Leaf) {
	switch t := v.(type) {
	case string:
		*out = append(*out, Leaf{Path: append(Path(nil), prefix...), Value: t})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collect(t[k], append(prefix, Step{Key: k}), out)
		}
	case []any:
		for i, item := range t {
			collect(item, append(prefix, Step{Index: i, IsIndex: true}), out)
		}
	}
}

// Set replaces the string at p inside root. It reports false when p does not
// lead to a string.
func Set(root any, p Path, value string) bool {
	if len(p) == 0 {
		return false
	}
	parent := root
	for _, s := range p[:len(p)-1] {
		next, ok := child(parent, s)
		if !ok {
			return false
		}
		parent = next
	}

	last := p[len(p)-1]
	switch t := parent.(type) {
	case map[string]any:
		if _, ok := t[last.Key].(string); ok && !last.IsIndex {
			t[last.Key] = value
			return true
		}
	case []any:
		if last.IsIndex && last.Index >= 0 && last.Index < len(t) {
			if _, ok := t[last.Index].(string); ok {
				t[last.Index] = value
				return true
			}
		}
	}
	return false
}

func child(v any, s Step) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		if s.IsIndex {
			return nil, false
		}
		c, ok := t[s.Key]
		return c, ok
	case []any:
		if !s.IsIndex || s.Index < 0 || s.Index >= len(t) {
			return nil, false
		}
		return t[s.Index], true
	}
	return nil, false
}

// clone deep-copies a decoded JSON tree.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, c := range t {
			m[k] = clone(c)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, c := range t {
			s[i] = clone(c)
		}
		return s
	default:
		return v
	}
}
