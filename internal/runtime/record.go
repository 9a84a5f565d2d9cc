package runtime

import (
	"strings"

	"github.com/google/btree"
)

type recordEntry struct {
	key   string
	value Value
}

func entryLess(a, b recordEntry) bool { return a.key < b.key }

// RecordVal maps names to values. Like arrays it is immutable: With and
// Without return a new record that shares structure with the old one
// through the B-tree's copy-on-write clone.
type RecordVal struct {
	tree *btree.BTreeG[recordEntry]
}

// NewRecord creates an empty record.
func NewRecord() *RecordVal {
	return &RecordVal{tree: btree.NewG[recordEntry](8, entryLess)}
}

// RecordOf builds a record from a Go map.
func RecordOf(m map[string]Value) *RecordVal {
	r := NewRecord()
	for k, v := range m {
		r.tree.ReplaceOrInsert(recordEntry{key: k, value: v})
	}
	return r
}

func (r *RecordVal) TypeName() string { return TypeRecord }
func (r *RecordVal) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	r.Each(func(key string, v Value) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(Inspect(v))
		return true
	})
	sb.WriteString("}")
	return sb.String()
}

// Len returns the number of entries.
func (r *RecordVal) Len() int { return r.tree.Len() }

// Get returns the value stored under key.
func (r *RecordVal) Get(key string) (Value, bool) {
	e, ok := r.tree.Get(recordEntry{key: key})
	if !ok {
		return nil, false
	}
	return e.value, true
}

// With returns a record with key set to v.
func (r *RecordVal) With(key string, v Value) *RecordVal {
	t := r.tree.Clone()
	t.ReplaceOrInsert(recordEntry{key: key, value: v})
	return &RecordVal{tree: t}
}

// Without returns a record with key removed.
func (r *RecordVal) Without(key string) *RecordVal {
	t := r.tree.Clone()
	t.Delete(recordEntry{key: key})
	return &RecordVal{tree: t}
}

// Merge returns a record holding both sets of entries; other wins on conflict.
func (r *RecordVal) Merge(other *RecordVal) *RecordVal {
	t := r.tree.Clone()
	other.tree.Ascend(func(e recordEntry) bool {
		t.ReplaceOrInsert(e)
		return true
	})
	return &RecordVal{tree: t}
}

// Each visits entries in key order until fn returns false.
func (r *RecordVal) Each(fn func(key string, v Value) bool) {
	r.tree.Ascend(func(e recordEntry) bool {
		return fn(e.key, e.value)
	})
}

// Keys returns the keys in sorted order.
func (r *RecordVal) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.Each(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns the values in key order.
func (r *RecordVal) Values() []Value {
	vals := make([]Value, 0, r.Len())
	r.Each(func(_ string, v Value) bool {
		vals = append(vals, v)
		return true
	})
	return vals
}

// Equal reports whether both records hold equal values under the same keys.
func (r *RecordVal) Equal(other *RecordVal) bool {
	if r.Len() != other.Len() {
		return false
	}
	equal := true
	r.Each(func(key string, v Value) bool {
		ov, ok := other.Get(key)
		if !ok || !ValuesEqual(v, ov) {
			equal = false
		}
		return equal
	})
	return equal
}
