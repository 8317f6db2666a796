package directory

import (
	"crypto/tls"
	"fmt"
	"strings"

	ldap "github.com/lkarlslund/ldap/v3"
	"github.com/pkg/errors"
)

// Session is a bound LDAP connection to one domain controller.
type Session struct {
	Options

	conn *ldap.Conn
}

func NewSession(opts Options) *Session {
	return &Session{Options: opts}
}

func (s *Session) Connect() error {
	if s.AuthDomain == "" {
		s.AuthDomain = s.Domain
	}
	switch s.TLSMode {
	case NoTLS:
		conn, err := ldap.Dial("tcp", fmt.Sprintf("%s:%d", s.Server, s.Port))
		if err != nil {
			return err
		}
		s.conn = conn
	case StartTLS:
		conn, err := ldap.Dial("tcp", fmt.Sprintf("%s:%d", s.Server, s.Port))
		if err != nil {
			return err
		}
		err = conn.StartTLS(&tls.Config{ServerName: s.Server})
		if err != nil {
			return err
		}
		s.conn = conn
	case TLS:
		config := &tls.Config{
			ServerName:         s.Server,
			InsecureSkipVerify: s.IgnoreCert,
		}
		conn, err := ldap.DialTLS("tcp", fmt.Sprintf("%s:%d", s.Server, s.Port), config)
		if err != nil {
			return err
		}
		s.conn = conn
	default:
		return errors.New("unknown transport mode")
	}

	var err error
	switch s.AuthMode {
	case Unauth:
		err = s.conn.UnauthenticatedBind(s.User)
	case Simple:
		err = s.conn.Bind(s.User, s.Password)
	case MD5:
		err = s.conn.MD5Bind(s.AuthDomain, s.User, s.Password)
	case NTLM:
		err = s.conn.NTLMBind(s.AuthDomain, s.User, s.Password)
	case NTLMPTH:
		err = s.conn.NTLMBindWithHash(s.AuthDomain, s.User, s.Password)
	case NTLMSSPI:
		err = s.conn.NTLMSSPIBind()
	default:
		return fmt.Errorf("unknown bind method %v", s.AuthMode)
	}
	return err
}

func (s *Session) Disconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	s.conn.Close()
	return nil
}

func (s *Session) RootDN() string {
	return "dc=" + strings.Replace(s.Domain, ".", ",dc=", -1)
}

// search runs one paged query and collects all entries.
func (s *Session) search(base string, scope int, filter string, attributes []string) ([]*ldap.Entry, error) {
	if s.conn == nil {
		return nil, errors.New("not connected")
	}

	var controls []ldap.Control

	if s.NoSACL {
		// Request security descriptors without the SACL part, so
		// unprivileged binds get consistent answers
		sdcontrol := &ControlInteger{
			ControlType:  "1.2.840.113556.1.4.801",
			Criticality:  true,
			ControlValue: int64(7),
		}
		controls = append(controls, sdcontrol)
	}

	if s.PageSize > 0 {
		paging := ldap.NewControlPaging(uint32(s.PageSize))
		controls = append(controls, paging)
	}

	var entries []*ldap.Entry

	for {
		request := ldap.NewSearchRequest(
			base,
			scope, ldap.NeverDerefAliases, 0, 0, false,
			filter,
			attributes,
			controls,
		)

		response, err := s.conn.Search(request)
		if err != nil {
			return entries, err
		}

		entries = append(entries, response.Entries...)

		responseControl := ldap.FindControl(response.Controls, ldap.ControlTypePaging)
		if rctrl, ok := responseControl.(*ldap.ControlPaging); rctrl != nil && ok && len(rctrl.Cookie) != 0 {
			pagingControl := ldap.FindControl(controls, ldap.ControlTypePaging)
			if sctrl, ok := pagingControl.(*ldap.ControlPaging); sctrl != nil && ok {
				sctrl.SetCookie(rctrl.Cookie)
				continue
			}
		}

		break
	}

	return entries, nil
}
