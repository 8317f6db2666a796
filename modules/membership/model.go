package membership

import (
	"sync"
)

type NodeCategory byte

const (
	CategoryDefault NodeCategory = iota
	CategoryRoot
	CategoryGroup
	CategoryPrincipal
)

func (nc NodeCategory) String() string {
	switch nc {
	case CategoryRoot:
		return "root"
	case CategoryGroup:
		return "group"
	case CategoryPrincipal:
		return "principal"
	}
	return "default"
}

type Node struct {
	Name     string
	Category NodeCategory
}

// Edge is a directed group-contains-member relation. Edges are intentionally
// not deduplicated: two roots traversing the same containment both leave
// their mark, mirroring the record semantics.
type Edge struct {
	From, To    string
	Containment bool // target is itself a group
}

// Model accumulates the records, nodes and edges of one or more traversals.
// Node declaration is idempotent with first-category-wins, so a group that is
// a root in one traversal keeps its root styling even if another traversal
// later rediscovers it as an intermediate. The mutex keeps declaration atomic
// if root traversals are ever run concurrently.
type Model struct {
	mu      sync.Mutex
	records []Record
	nodes   map[string]NodeCategory
	order   []string
	edges   []Edge
}

func NewModel() *Model {
	return &Model{
		nodes: make(map[string]NodeCategory),
	}
}

func (m *Model) DeclareNode(name string, category NodeCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, declared := m.nodes[name]; declared {
		return
	}
	m.nodes[name] = category
	m.order = append(m.order, name)
}

func (m *Model) AddEdge(from, to string, containment bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, Edge{From: from, To: to, Containment: containment})
}

func (m *Model) AddRecord(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
}

func (m *Model) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records
}

// Nodes returns declared nodes in declaration order.
func (m *Model) Nodes() []Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodes := make([]Node, len(m.order))
	for i, name := range m.order {
		nodes[i] = Node{Name: name, Category: m.nodes[name]}
	}
	return nodes
}

func (m *Model) Edges() []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges
}

// Absorb folds another model into this one: records and edges are
// concatenated, node declarations are replayed in the other model's
// declaration order so first-wins still holds across roots.
func (m *Model) Absorb(other *Model) {
	for _, node := range other.Nodes() {
		m.DeclareNode(node.Name, node.Category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()
	m.records = append(m.records, other.records...)
	m.edges = append(m.edges, other.edges...)
}
