package membership

import (
	"github.com/klarberg/adnest/modules/ui"
)

// DefaultMaxDepth bounds the recursion. The visited set already guarantees
// termination on cycles, this only caps pathological organizational depth.
const DefaultMaxDepth = 100

// DefaultFlagAttribute marks principals protected by AdminSDHolder.
const DefaultFlagAttribute = "adminCount"

type Builder struct {
	Directory     Directory
	FlagAttribute string
	MaxDepth      int
}

func NewBuilder(directory Directory) *Builder {
	return &Builder{
		Directory:     directory,
		FlagAttribute: DefaultFlagAttribute,
		MaxDepth:      DefaultMaxDepth,
	}
}

// WalkName resolves a root group by name and traverses it. The caller can
// test the returned error against ErrNotFound to treat a missing root as a
// warning rather than a failure.
func (b *Builder) WalkName(rootName string) (*Model, error) {
	root, err := b.Directory.ResolveGroup(rootName)
	if err != nil {
		return nil, err
	}
	return b.Walk(root), nil
}

// Walk does a depth first traversal of the group-contains-member relation
// starting at root, with a visited set scoped to this call. Lookups that fail
// abort only the branch they happen on, anything already collected stands.
func (b *Builder) Walk(root GroupRef) *Model {
	model := NewModel()
	visited := make(map[string]struct{})
	b.walk(model, root.Name, root, nil, visited)
	return model
}

func (b *Builder) walk(model *Model, rootName string, group GroupRef, path []string, visited map[string]struct{}) {
	if len(path) == 0 {
		model.DeclareNode(group.Name, CategoryRoot)
	} else {
		model.DeclareNode(group.Name, CategoryGroup)
	}

	if _, seen := visited[group.DN]; seen {
		return
	}

	maxdepth := b.MaxDepth
	if maxdepth <= 0 {
		maxdepth = DefaultMaxDepth
	}
	if len(path) >= maxdepth {
		// Not marked visited, a shorter path may still expand this group
		ui.Warn().Msgf("Not expanding %v, group nesting exceeds %v levels", group.Name, maxdepth)
		return
	}
	visited[group.DN] = struct{}{}

	members, err := b.Directory.ListMembers(group)
	if err != nil {
		ui.Warn().Msgf("Could not list members of group %v: %v", group.Name, err)
		return
	}

	for _, member := range members {
		record := Record{
			Root:   rootName,
			Member: member.Name,
			Class:  member.Class,
			DN:     member.DN,
		}
		if len(path) == 0 {
			record.Kind = Direct
		} else {
			record.Kind = Nested
			record.Via = group.Name
			record.Path = append(append([]string(nil), path...), group.Name)
		}

		switch member.Class {
		case ClassGroup:
			record.Flag = FlagNotApplicable
		case ClassUser, ClassComputer:
			flag, err := b.flagAttribute(member)
			if err != nil {
				// A failed lookup and a legitimately absent attribute both
				// end up as an empty flag
				ui.Debug().Msgf("Could not read %v for %v: %v", b.FlagAttribute, member.Name, err)
			} else {
				record.Flag = flag
			}
		}

		model.AddRecord(record)

		if member.Class == ClassGroup {
			model.DeclareNode(member.Name, CategoryGroup)
			model.AddEdge(group.Name, member.Name, true)

			child, err := b.Directory.ResolveGroup(member.Name)
			if err != nil {
				ui.Warn().Msgf("Could not resolve nested group %v below %v: %v", member.Name, group.Name, err)
				continue
			}
			b.walk(model, rootName, child, append(append([]string(nil), path...), group.Name), visited)
		} else {
			model.DeclareNode(member.Name, CategoryPrincipal)
			model.AddEdge(group.Name, member.Name, false)
		}
	}
}

func (b *Builder) flagAttribute(member Principal) (string, error) {
	attribute := b.FlagAttribute
	if attribute == "" {
		attribute = DefaultFlagAttribute
	}
	return b.Directory.GetAttribute(member.DN, attribute)
}
