package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klarberg/adnest/modules/membership"
)

func testModel() *membership.Model {
	model := membership.NewModel()
	model.DeclareNode("Domain Admins", membership.CategoryRoot)
	model.DeclareNode("Ops", membership.CategoryGroup)
	model.DeclareNode("Alice", membership.CategoryPrincipal)
	model.AddEdge("Domain Admins", "Ops", true)
	model.AddEdge("Ops", "Alice", false)
	model.AddRecord(membership.Record{Root: "Domain Admins", Member: "Ops", Class: membership.ClassGroup})
	model.AddRecord(membership.Record{Root: "Domain Admins", Member: "Alice", Class: membership.ClassUser, Kind: membership.Nested, Via: "Ops"})
	return model
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOT(&buf, testModel()); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}
	dot := buf.String()

	for _, want := range []string{
		"digraph memberships {",
		`"Domain Admins" [fillcolor="firebrick", fontcolor="white"];`,
		`"Ops" [fillcolor="orange", fontcolor="black"];`,
		`"Alice" [fillcolor="lightskyblue", fontcolor="black"];`,
		`"Domain Admins" -> "Ops" [style=bold];`,
		`"Ops" -> "Alice";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in output:\n%v", want, dot)
		}
	}

	// node listing is sorted, not declaration order
	if strings.Index(dot, `"Alice"`) > strings.Index(dot, `"Ops" [`) {
		t.Error("nodes should be listed in sorted order")
	}
}

func TestQuoteEscaping(t *testing.T) {
	if got := quote(`CN="odd\name"`); got != `"CN=\"odd\\name\""` {
		t.Errorf("got %v", got)
	}
}

func TestWriteDOTDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	model := testModel()
	if err := WriteDOT(&first, model); err != nil {
		t.Fatal(err)
	}
	if err := WriteDOT(&second, model); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Error("DOT output must be identical between runs")
	}
}
