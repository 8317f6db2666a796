package membership

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by a Directory when a name does not exist at all,
// as opposed to lookups that fail for connectivity or permission reasons.
var ErrNotFound = errors.New("object not found in directory")

// Directory is the lookup surface the graph builder needs. The LDAP
// implementation lives in modules/directory.
type Directory interface {
	ResolveGroup(name string) (GroupRef, error)
	ListMembers(group GroupRef) ([]Principal, error)
	GetAttribute(dn, attribute string) (string, error)
}

// GroupRef identifies a resolved group by its distinguished name and its
// account name.
type GroupRef struct {
	DN   string
	Name string
}

// ObjectClass carries the structural class of a directory object. Anything
// we don't specifically recognize keeps its literal class string.
type ObjectClass string

const (
	ClassGroup    ObjectClass = "group"
	ClassUser     ObjectClass = "user"
	ClassComputer ObjectClass = "computer"
)

// Principal is a directory object found in a group's member list.
type Principal struct {
	Name  string
	Class ObjectClass
	DN    string
}

type Kind byte

const (
	Direct Kind = iota
	Nested
)

func (k Kind) String() string {
	if k == Direct {
		return "Direct"
	}
	return "Nested"
}

// FlagNotApplicable is reported as the protection flag for members that are
// themselves groups, where adminCount carries no meaning. It is distinct
// from the empty string, which means the attribute was queried but absent.
const FlagNotApplicable = "not applicable"

// PathSeparator joins the chain of group names from root to the member's
// immediate group.
const PathSeparator = " -> "

// Record is one discovered membership edge, emitted once per root traversal
// occurrence.
type Record struct {
	Root   string
	Member string
	Class  ObjectClass
	Kind   Kind
	Via    string   // group that directly lists the member, empty when Direct
	Path   []string // group names from root to Via, empty when Direct
	Flag   string
	DN     string
}

func (r Record) PathString() string {
	return strings.Join(r.Path, PathSeparator)
}
