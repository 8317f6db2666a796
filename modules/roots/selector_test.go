package roots

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klarberg/adnest/modules/membership"
	"github.com/pkg/errors"
)

type fakeDirectory struct {
	attrs     map[string]string
	attrerr   error
	groups    map[string][]membership.GroupRef
	lastbase  string
	groupserr error
}

func (f *fakeDirectory) GetAttribute(dn, attribute string) (string, error) {
	if f.attrerr != nil {
		return "", f.attrerr
	}
	return f.attrs[dn+"/"+attribute], nil
}

func (f *fakeDirectory) ListGroups(base string) ([]membership.GroupRef, error) {
	f.lastbase = base
	if f.groupserr != nil {
		return nil, f.groupserr
	}
	return f.groups[base], nil
}

func (f *fakeDirectory) RootDN() string {
	return "DC=example,DC=com"
}

func TestModeFromString(t *testing.T) {
	for input, want := range map[string]Mode{
		"protected": ModeProtected,
		"FILE":      ModeFile,
		"ou":        ModeOU,
		"All":       ModeAll,
	} {
		mode, err := ModeFromString(input)
		if err != nil || mode != want {
			t.Errorf("ModeFromString(%q) = %v, %v", input, mode, err)
		}
	}
	if _, err := ModeFromString("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestFileRoots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roots.txt")
	content := `Domain Admins
# a comment

Enterprise Admins,ignored extra column
  Schema Admins
Domain Admins
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	names, err := Select(&fakeDirectory{}, Options{Mode: ModeFile, File: path})
	if err != nil {
		t.Fatalf("file selection failed: %v", err)
	}
	want := []string{"Domain Admins", "Enterprise Admins", "Schema Admins"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestFileRootsMissingFile(t *testing.T) {
	_, err := Select(&fakeDirectory{}, Options{Mode: ModeFile, File: "/nonexistent/roots.txt"})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing file should be a configuration error, got %v", err)
	}
	_, err = Select(&fakeDirectory{}, Options{Mode: ModeFile})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing file name should be a configuration error, got %v", err)
	}
}

func TestOURootsExpandsBareName(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string][]membership.GroupRef{
			"OU=Privileged,DC=example,DC=com": {
				{DN: "CN=Admins,OU=Privileged,DC=example,DC=com", Name: "Admins"},
			},
		},
	}
	names, err := Select(dir, Options{Mode: ModeOU, OU: "Privileged"})
	if err != nil {
		t.Fatalf("ou selection failed: %v", err)
	}
	if dir.lastbase != "OU=Privileged,DC=example,DC=com" {
		t.Errorf("bare OU name should expand below the root DN, searched %q", dir.lastbase)
	}
	if !reflect.DeepEqual(names, []string{"Admins"}) {
		t.Errorf("got %v", names)
	}
}

func TestOURootsKeepsFullDN(t *testing.T) {
	dir := &fakeDirectory{}
	_, err := Select(dir, Options{Mode: ModeOU, OU: "OU=Staff,DC=other,DC=org"})
	if err != nil {
		t.Fatalf("ou selection failed: %v", err)
	}
	if dir.lastbase != "OU=Staff,DC=other,DC=org" {
		t.Errorf("full DN should be used as-is, searched %q", dir.lastbase)
	}
}

func TestOURootsMissingOU(t *testing.T) {
	dir := &fakeDirectory{groupserr: membership.ErrNotFound}
	_, err := Select(dir, Options{Mode: ModeOU, OU: "Nope"})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("nonexistent OU should be a configuration error, got %v", err)
	}
}

func TestOURootsEmptyOU(t *testing.T) {
	names, err := Select(&fakeDirectory{}, Options{Mode: ModeOU, OU: "Empty"})
	if err != nil {
		t.Errorf("an existing but empty OU is not an error, got %v", err)
	}
	if len(names) != 0 {
		t.Errorf("got %v", names)
	}
}

func TestAllGroups(t *testing.T) {
	dir := &fakeDirectory{
		groups: map[string][]membership.GroupRef{
			"DC=example,DC=com": {
				{Name: "Admins"}, {Name: "Users"}, {Name: "Admins"},
			},
		},
	}
	names, err := Select(dir, Options{Mode: ModeAll})
	if err != nil {
		t.Fatalf("all selection failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Admins", "Users"}) {
		t.Errorf("expected deduplicated names, got %v", names)
	}
}
