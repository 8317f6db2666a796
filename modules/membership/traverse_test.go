package membership

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

type fakeDirectory struct {
	groups  map[string]GroupRef
	members map[string][]Principal
	attrs   map[string]map[string]string
	broken  map[string]error
}

func (f *fakeDirectory) ResolveGroup(name string) (GroupRef, error) {
	if ref, found := f.groups[name]; found {
		return ref, nil
	}
	return GroupRef{}, errors.Wrapf(ErrNotFound, "group %v", name)
}

func (f *fakeDirectory) ListMembers(group GroupRef) ([]Principal, error) {
	if err := f.broken[group.DN]; err != nil {
		return nil, err
	}
	return f.members[group.DN], nil
}

func (f *fakeDirectory) GetAttribute(dn, attribute string) (string, error) {
	if attrs, found := f.attrs[dn]; found {
		return attrs[attribute], nil
	}
	return "", nil
}

func dn(name string) string {
	return "CN=" + name + ",DC=example,DC=com"
}

func group(name string) GroupRef {
	return GroupRef{DN: dn(name), Name: name}
}

func groupMember(name string) Principal {
	return Principal{Name: name, Class: ClassGroup, DN: dn(name)}
}

func userMember(name string) Principal {
	return Principal{Name: name, Class: ClassUser, DN: dn(name)}
}

func TestDirectAndNestedMembership(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string]GroupRef{
			"Domain Admins": group("Domain Admins"),
			"Nested Ops":    group("Nested Ops"),
		},
		members: map[string][]Principal{
			dn("Domain Admins"): {userMember("Alice"), groupMember("Nested Ops")},
			dn("Nested Ops"):    {userMember("Bob")},
		},
		attrs: map[string]map[string]string{
			dn("Alice"): {"adminCount": "1"},
		},
	}

	model, err := NewBuilder(dir).WalkName("Domain Admins")
	if err != nil {
		t.Fatalf("traversal failed: %v", err)
	}

	records := model.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %v: %+v", len(records), records)
	}

	alice := records[0]
	if alice.Member != "Alice" || alice.Kind != Direct || alice.Via != "" || len(alice.Path) != 0 {
		t.Errorf("unexpected record for direct user member: %+v", alice)
	}
	if alice.Flag != "1" {
		t.Errorf("expected adminCount flag 1 for Alice, got %q", alice.Flag)
	}

	nested := records[1]
	if nested.Member != "Nested Ops" || nested.Kind != Direct {
		t.Errorf("unexpected record for direct group member: %+v", nested)
	}
	if nested.Flag != FlagNotApplicable {
		t.Errorf("group member should carry the %q flag, got %q", FlagNotApplicable, nested.Flag)
	}

	bob := records[2]
	if bob.Member != "Bob" || bob.Kind != Nested || bob.Via != "Nested Ops" {
		t.Errorf("unexpected record for nested user member: %+v", bob)
	}
	if bob.PathString() != "Domain Admins -> Nested Ops" {
		t.Errorf("unexpected path %q", bob.PathString())
	}
	if bob.Root != "Domain Admins" {
		t.Errorf("nested record should keep the root name, got %q", bob.Root)
	}
	if bob.Flag != "" {
		t.Errorf("user without adminCount should have an empty flag, got %q", bob.Flag)
	}
}

func TestCycleTermination(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string]GroupRef{
			"G1": group("G1"),
			"G2": group("G2"),
		},
		members: map[string][]Principal{
			dn("G1"): {groupMember("G2")},
			dn("G2"): {groupMember("G1")},
		},
	}

	model, err := NewBuilder(dir).WalkName("G1")
	if err != nil {
		t.Fatalf("traversal failed: %v", err)
	}

	records := model.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records from a two group cycle, got %v: %+v", len(records), records)
	}
	if records[0].Member != "G2" || records[0].Kind != Direct {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Member != "G1" || records[1].Kind != Nested || records[1].Via != "G2" {
		t.Errorf("unexpected cycle closing record: %+v", records[1])
	}

	edges := model.Edges()
	if len(edges) != 2 {
		t.Errorf("expected 2 edges, got %v: %+v", len(edges), edges)
	}

	// G1 was declared a root first, rediscovering it through the cycle must
	// not downgrade it
	for _, node := range model.Nodes() {
		if node.Name == "G1" && node.Category != CategoryRoot {
			t.Errorf("root node was redeclared as %v", node.Category)
		}
	}
}

func TestWalkNameMissingRoot(t *testing.T) {
	dir := &fakeDirectory{groups: map[string]GroupRef{}}
	_, err := NewBuilder(dir).WalkName("Ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing root, got %v", err)
	}
}

func TestListFailureSkipsBranchOnly(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string]GroupRef{
			"Root":   group("Root"),
			"Broken": group("Broken"),
		},
		members: map[string][]Principal{
			dn("Root"): {groupMember("Broken"), userMember("Carol")},
		},
		broken: map[string]error{
			dn("Broken"): errors.New("connection reset"),
		},
	}

	model, err := NewBuilder(dir).WalkName("Root")
	if err != nil {
		t.Fatalf("a broken branch must not fail the traversal: %v", err)
	}

	records := model.Records()
	if len(records) != 2 {
		t.Fatalf("expected records for Broken and Carol, got %+v", records)
	}
	if records[1].Member != "Carol" {
		t.Errorf("traversal should continue past the broken branch, got %+v", records[1])
	}
}

func TestMaxDepthStopsExpansion(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string]GroupRef{
			"A": group("A"), "B": group("B"), "C": group("C"),
		},
		members: map[string][]Principal{
			dn("A"): {groupMember("B")},
			dn("B"): {groupMember("C")},
			dn("C"): {userMember("Deep")},
		},
	}

	builder := NewBuilder(dir)
	builder.MaxDepth = 2
	model, err := builder.WalkName("A")
	if err != nil {
		t.Fatalf("traversal failed: %v", err)
	}

	for _, record := range model.Records() {
		if record.Member == "Deep" {
			t.Errorf("member below the depth limit should not be reported: %+v", record)
		}
	}
	if len(model.Records()) != 2 {
		t.Errorf("expected records for B and C only, got %+v", model.Records())
	}
}

func TestDepthBoundDoesNotBlockShorterPath(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string]GroupRef{
			"R": group("R"), "A": group("A"), "X": group("X"),
		},
		members: map[string][]Principal{
			dn("R"): {groupMember("A"), groupMember("X")},
			dn("A"): {groupMember("X")},
			dn("X"): {userMember("Deep")},
		},
	}

	builder := NewBuilder(dir)
	builder.MaxDepth = 2
	model, err := builder.WalkName("R")
	if err != nil {
		t.Fatalf("traversal failed: %v", err)
	}

	var found bool
	for _, record := range model.Records() {
		if record.Member == "Deep" && record.Via == "X" {
			found = true
			if record.PathString() != "R -> X" {
				t.Errorf("expected the short path, got %q", record.PathString())
			}
		}
	}
	if !found {
		t.Error("a group first reached at the depth limit must still expand through a shorter path")
	}
}

func TestRepeatedTraversalIsDeterministic(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string]GroupRef{
			"Admins": group("Admins"),
			"Ops":    group("Ops"),
		},
		members: map[string][]Principal{
			dn("Admins"): {groupMember("Ops"), userMember("Alice")},
			dn("Ops"):    {userMember("Bob"), userMember("Alice")},
		},
	}

	builder := NewBuilder(dir)
	run := func() *Model {
		admins, err := builder.WalkName("Admins")
		if err != nil {
			t.Fatalf("traversal failed: %v", err)
		}
		ops, err := builder.WalkName("Ops")
		if err != nil {
			t.Fatalf("traversal failed: %v", err)
		}
		return Assemble(admins, ops)
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first.Records(), second.Records()) {
		t.Error("identical input must give identical record output")
	}
	if !reflect.DeepEqual(first.Edges(), second.Edges()) {
		t.Error("identical input must give identical edge output")
	}
	if !reflect.DeepEqual(first.Nodes(), second.Nodes()) {
		t.Error("identical input must give identical node output")
	}
}
