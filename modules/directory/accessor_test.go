package directory

import (
	"testing"

	"github.com/klarberg/adnest/modules/membership"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		classes []string
		want    membership.ObjectClass
	}{
		{[]string{"top", "group"}, membership.ClassGroup},
		{[]string{"top", "person", "organizationalPerson", "user"}, membership.ClassUser},
		{[]string{"top", "person", "organizationalPerson", "user", "computer"}, membership.ClassComputer},
		{[]string{"computer", "user"}, membership.ClassComputer},
		{[]string{"top", "foreignSecurityPrincipal"}, "foreignSecurityPrincipal"},
		{[]string{"top"}, "unknown"},
		{nil, "unknown"},
	}
	for _, c := range cases {
		if got := classify(c.classes); got != c.want {
			t.Errorf("classify(%v) = %v, want %v", c.classes, got, c.want)
		}
	}
}

func TestTLSModeString(t *testing.T) {
	for input, want := range map[string]TLSMode{
		"TLS": TLS, "tls": TLS, "StartTLS": StartTLS, "notls": NoTLS,
	} {
		mode, err := TLSModeString(input)
		if err != nil || mode != want {
			t.Errorf("TLSModeString(%q) = %v, %v", input, mode, err)
		}
	}
	if _, err := TLSModeString("ssl"); err == nil {
		t.Error("expected error for unknown TLS mode")
	}
}

func TestAuthModeString(t *testing.T) {
	for input, want := range map[string]AuthMode{
		"unauth": Unauth, "simple": Simple, "md5": MD5,
		"NTLM": NTLM, "ntlmpth": NTLMPTH, "ntlmsspi": NTLMSSPI,
	} {
		mode, err := AuthModeString(input)
		if err != nil || mode != want {
			t.Errorf("AuthModeString(%q) = %v, %v", input, mode, err)
		}
	}
	if _, err := AuthModeString("kerberos"); err == nil {
		t.Error("expected error for unknown auth mode")
	}
}

func TestRootDN(t *testing.T) {
	s := NewSession(Options{Domain: "sub.example.com"})
	if s.RootDN() != "dc=sub,dc=example,dc=com" {
		t.Errorf("got %v", s.RootDN())
	}
}
