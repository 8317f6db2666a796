package membership

import (
	"sort"
	"strings"
)

// Assemble merges the per-root models into one and sorts the record set into
// its final deterministic order. Records and edges are concatenated without
// deduplication, node categories are first-declared-wins across roots.
func Assemble(models ...*Model) *Model {
	merged := NewModel()
	for _, model := range models {
		merged.Absorb(model)
	}
	merged.SortRecords()
	return merged
}

// SortRecords orders by root, member, class, membership kind, via group,
// flag and finally DN, all ascending. Comparison is case sensitive byte
// order, so output is byte-identical between runs on the same input.
func (m *Model) SortRecords() {
	m.mu.Lock()
	defer m.mu.Unlock()
	sort.SliceStable(m.records, func(i, j int) bool {
		return m.records[i].compare(m.records[j]) < 0
	})
}

func (r Record) compare(o Record) int {
	if c := strings.Compare(r.Root, o.Root); c != 0 {
		return c
	}
	if c := strings.Compare(r.Member, o.Member); c != 0 {
		return c
	}
	if c := strings.Compare(string(r.Class), string(o.Class)); c != 0 {
		return c
	}
	if r.Kind != o.Kind {
		return int(r.Kind) - int(o.Kind)
	}
	if c := strings.Compare(r.Via, o.Via); c != 0 {
		return c
	}
	if c := strings.Compare(r.Flag, o.Flag); c != 0 {
		return c
	}
	return strings.Compare(r.DN, o.DN)
}
