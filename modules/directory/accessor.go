package directory

import (
	"fmt"
	"strings"

	"github.com/klarberg/adnest/modules/membership"
	"github.com/klarberg/adnest/modules/ui"
	ldap "github.com/lkarlslund/ldap/v3"
	"github.com/pkg/errors"
)

const (
	attrSAMAccountName = "sAMAccountName"
	attrObjectClass    = "objectClass"
	attrMember         = "member"
)

// ResolveGroup finds a group by account name or distinguished name. A name
// that matches nothing yields membership.ErrNotFound, other failures pass
// through as-is.
func (s *Session) ResolveGroup(name string) (membership.GroupRef, error) {
	filter := fmt.Sprintf("(&(objectClass=group)(|(sAMAccountName=%s)(distinguishedName=%s)))",
		ldap.EscapeFilter(name), ldap.EscapeFilter(name))
	entries, err := s.search(s.RootDN(), ldap.ScopeWholeSubtree, filter, []string{attrSAMAccountName})
	if err != nil {
		return membership.GroupRef{}, errors.Wrapf(err, "resolving group %v", name)
	}
	if len(entries) == 0 {
		return membership.GroupRef{}, errors.Wrapf(membership.ErrNotFound, "group %v", name)
	}
	entry := entries[0]
	groupname := entry.GetAttributeValue(attrSAMAccountName)
	if groupname == "" {
		groupname = name
	}
	return membership.GroupRef{DN: entry.DN, Name: groupname}, nil
}

// ListMembers returns the one-level members of a group. Members that cannot
// be looked up individually are skipped with a warning, they don't fail the
// whole listing.
func (s *Session) ListMembers(group membership.GroupRef) ([]membership.Principal, error) {
	entries, err := s.search(group.DN, ldap.ScopeBaseObject, "(objectClass=*)", []string{attrMember})
	if err != nil {
		return nil, errors.Wrapf(s.mapNotFound(err), "listing members of %v", group.Name)
	}
	if len(entries) == 0 {
		return nil, errors.Wrapf(membership.ErrNotFound, "group %v", group.DN)
	}

	var members []membership.Principal
	for _, memberdn := range entries[0].GetAttributeValues(attrMember) {
		principal, err := s.lookupPrincipal(memberdn)
		if err != nil {
			ui.Warn().Msgf("Could not look up member %v of group %v: %v", memberdn, group.Name, err)
			continue
		}
		members = append(members, principal)
	}
	return members, nil
}

// GetAttribute reads one attribute from an object. An object that exists but
// has no such attribute gives an empty string, not an error.
func (s *Session) GetAttribute(dn, attribute string) (string, error) {
	entries, err := s.search(dn, ldap.ScopeBaseObject, "(objectClass=*)", []string{attribute})
	if err != nil {
		return "", s.mapNotFound(err)
	}
	if len(entries) == 0 {
		return "", errors.Wrapf(membership.ErrNotFound, "object %v", dn)
	}
	return entries[0].GetAttributeValue(attribute), nil
}

// ListGroups returns every group below the given base DN. A base that does
// not exist yields membership.ErrNotFound so callers can treat a mistyped
// scope differently from a query failure.
func (s *Session) ListGroups(base string) ([]membership.GroupRef, error) {
	if _, err := s.search(base, ldap.ScopeBaseObject, "(objectClass=*)", []string{attrObjectClass}); err != nil {
		return nil, errors.Wrapf(s.mapNotFound(err), "scope %v", base)
	}

	entries, err := s.search(base, ldap.ScopeWholeSubtree, "(objectClass=group)", []string{attrSAMAccountName})
	if err != nil {
		return nil, errors.Wrapf(err, "listing groups below %v", base)
	}

	groups := make([]membership.GroupRef, 0, len(entries))
	for _, entry := range entries {
		name := entry.GetAttributeValue(attrSAMAccountName)
		if name == "" {
			name = entry.DN
		}
		groups = append(groups, membership.GroupRef{DN: entry.DN, Name: name})
	}
	return groups, nil
}

func (s *Session) lookupPrincipal(dn string) (membership.Principal, error) {
	entries, err := s.search(dn, ldap.ScopeBaseObject, "(objectClass=*)", []string{attrSAMAccountName, attrObjectClass})
	if err != nil {
		return membership.Principal{}, s.mapNotFound(err)
	}
	if len(entries) == 0 {
		return membership.Principal{}, errors.Wrapf(membership.ErrNotFound, "object %v", dn)
	}
	entry := entries[0]
	name := entry.GetAttributeValue(attrSAMAccountName)
	if name == "" {
		// foreign security principals and contacts have no account name
		name = entry.DN
	}
	return membership.Principal{
		Name:  name,
		Class: classify(entry.GetAttributeValues(attrObjectClass)),
		DN:    entry.DN,
	}, nil
}

// classify maps the objectClass chain onto the classes the report cares
// about. Computer objects also carry the user class, so computer must win
// over user; anything unrecognized keeps its most specific literal class.
func classify(classes []string) membership.ObjectClass {
	var isUser bool
	var literal string
	for _, class := range classes {
		switch strings.ToLower(class) {
		case "top", "person", "organizationalperson":
			// structural ancestors, not interesting
		case "group":
			return membership.ClassGroup
		case "computer":
			return membership.ClassComputer
		case "user":
			isUser = true
		default:
			literal = class
		}
	}
	if isUser {
		return membership.ClassUser
	}
	if literal != "" {
		return membership.ObjectClass(literal)
	}
	return "unknown"
}

// mapNotFound turns the LDAP no-such-object result into the accessor's
// distinct not-found error.
func (s *Session) mapNotFound(err error) error {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
		return membership.ErrNotFound
	}
	return err
}
