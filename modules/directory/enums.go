package directory

import (
	"fmt"
	"strings"
)

type TLSMode byte

const (
	TLS TLSMode = iota
	StartTLS
	NoTLS
)

func (t TLSMode) String() string {
	switch t {
	case TLS:
		return "TLS"
	case StartTLS:
		return "StartTLS"
	case NoTLS:
		return "NoTLS"
	}
	return fmt.Sprintf("TLSMode(%d)", t)
}

func TLSModeString(s string) (TLSMode, error) {
	switch strings.ToLower(s) {
	case "tls":
		return TLS, nil
	case "starttls":
		return StartTLS, nil
	case "notls":
		return NoTLS, nil
	}
	return TLS, fmt.Errorf("%s does not belong to TLSMode values", s)
}

type AuthMode byte

const (
	Unauth AuthMode = iota
	Simple
	MD5
	NTLM
	NTLMPTH
	NTLMSSPI
)

func (a AuthMode) String() string {
	switch a {
	case Unauth:
		return "unauth"
	case Simple:
		return "simple"
	case MD5:
		return "md5"
	case NTLM:
		return "ntlm"
	case NTLMPTH:
		return "ntlmpth"
	case NTLMSSPI:
		return "ntlmsspi"
	}
	return fmt.Sprintf("AuthMode(%d)", a)
}

func AuthModeString(s string) (AuthMode, error) {
	switch strings.ToLower(s) {
	case "unauth":
		return Unauth, nil
	case "simple":
		return Simple, nil
	case "md5":
		return MD5, nil
	case "ntlm":
		return NTLM, nil
	case "ntlmpth":
		return NTLMPTH, nil
	case "ntlmsspi":
		return NTLMSSPI, nil
	}
	return Unauth, fmt.Errorf("%s does not belong to AuthMode values", s)
}
