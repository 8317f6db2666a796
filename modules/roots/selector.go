package roots

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klarberg/adnest/modules/membership"
	"github.com/klarberg/adnest/modules/ui"
	"github.com/pkg/errors"
)

// ErrConfiguration marks a root selection that cannot produce a usable root
// set at all (missing file, nonexistent OU). These are fatal for the run,
// unlike individual roots that fail to resolve later.
var ErrConfiguration = errors.New("invalid root selection")

type Mode byte

const (
	ModeProtected Mode = iota
	ModeFile
	ModeOU
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeProtected:
		return "protected"
	case ModeFile:
		return "file"
	case ModeOU:
		return "ou"
	case ModeAll:
		return "all"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

func ModeFromString(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "protected":
		return ModeProtected, nil
	case "file":
		return ModeFile, nil
	case "ou":
		return ModeOU, nil
	case "all":
		return ModeAll, nil
	}
	return ModeProtected, fmt.Errorf("%s does not belong to Mode values", s)
}

// Directory is the subset of lookups the selector strategies need.
type Directory interface {
	GetAttribute(dn, attribute string) (string, error)
	ListGroups(base string) ([]membership.GroupRef, error)
	RootDN() string
}

type Options struct {
	Mode Mode
	File string // root list file for ModeFile
	OU   string // organizational unit name or DN for ModeOU
}

// Select produces the ordered, deduplicated set of root group names for the
// chosen mode.
func Select(dir Directory, opts Options) ([]string, error) {
	var names []string
	var err error
	switch opts.Mode {
	case ModeProtected:
		names, err = protectedRoots(dir)
	case ModeFile:
		names, err = fileRoots(opts.File)
	case ModeOU:
		names, err = ouRoots(dir, opts.OU)
	case ModeAll:
		names, err = groupNames(dir.ListGroups(dir.RootDN()))
	default:
		return nil, errors.Wrapf(ErrConfiguration, "unknown mode %v", opts.Mode)
	}
	if err != nil {
		return nil, err
	}
	return dedupe(names), nil
}

func fileRoots(path string) ([]string, error) {
	if path == "" {
		return nil, errors.Wrap(ErrConfiguration, "no root list file given")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "could not open root list %v: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var names []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "could not parse root list %v: %v", path, err)
		}
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func ouRoots(dir Directory, ou string) ([]string, error) {
	if ou == "" {
		return nil, errors.Wrap(ErrConfiguration, "no organizational unit given")
	}
	base := ou
	if !strings.Contains(base, "=") {
		base = "OU=" + base + "," + dir.RootDN()
	}
	groups, err := dir.ListGroups(base)
	if errors.Is(err, membership.ErrNotFound) {
		return nil, errors.Wrapf(ErrConfiguration, "organizational unit %v does not exist", base)
	}
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		ui.Info().Msgf("No groups found below %v", base)
	}
	return groupNames(groups, nil)
}

func groupNames(groups []membership.GroupRef, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	names := make([]string, len(groups))
	for i, group := range groups {
		names[i] = group.Name
	}
	return names, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := names[:0]
	for _, name := range names {
		if _, found := seen[name]; found {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}
