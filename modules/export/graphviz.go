package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klarberg/adnest/modules/membership"
	"github.com/pkg/errors"
)

type nodeStyle struct {
	fillcolor string
	fontcolor string
}

var categoryStyles = map[membership.NodeCategory]nodeStyle{
	membership.CategoryRoot:      {fillcolor: "firebrick", fontcolor: "white"},
	membership.CategoryGroup:     {fillcolor: "orange", fontcolor: "black"},
	membership.CategoryPrincipal: {fillcolor: "lightskyblue", fontcolor: "black"},
	membership.CategoryDefault:   {fillcolor: "lightgrey", fontcolor: "black"},
}

// WriteDOT emits the model as a Graphviz digraph. Node names are sorted so the
// output is stable across runs; membership edges point from container to member.
func WriteDOT(w io.Writer, model *membership.Model) error {
	if _, err := fmt.Fprintln(w, "digraph memberships {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  node [shape=box, style=filled];")

	nodes := model.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	for _, node := range nodes {
		style, found := categoryStyles[node.Category]
		if !found {
			style = categoryStyles[membership.CategoryDefault]
		}
		fmt.Fprintf(w, "  %v [fillcolor=%v, fontcolor=%v];\n", quote(node.Name), quote(style.fillcolor), quote(style.fontcolor))
	}

	for _, edge := range model.Edges() {
		attrs := ""
		if edge.Containment {
			attrs = " [style=bold]"
		}
		fmt.Fprintf(w, "  %v -> %v%v;\n", quote(edge.From), quote(edge.To), attrs)
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func SaveDOT(filename string, model *membership.Model) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating graph %v", filename)
	}
	defer f.Close()
	return WriteDOT(f, model)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
