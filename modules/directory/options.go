package directory

import (
	"net"
	"os"
	"strings"

	"github.com/Showmax/go-fqdn"
	"github.com/klarberg/adnest/modules/ui"
	"github.com/pkg/errors"
)

type Options struct {
	Domain     string
	Server     string
	Port       uint16
	User       string
	Password   string
	AuthDomain string
	AuthMode   AuthMode
	TLSMode    TLSMode
	IgnoreCert bool
	NoSACL     bool
	PageSize   int
}

func NewOptions() Options {
	return Options{
		NoSACL:   true,
		PageSize: 1000,
	}
}

type domainDetector struct {
	Name string
	Func func() string
}

var findDomain = []domainDetector{
	{
		Name: "USERDNSDOMAIN",
		Func: func() string {
			return strings.ToLower(os.Getenv("USERDNSDOMAIN"))
		},
	},
	{
		Name: "FQDN",
		Func: func() string {
			f, err := fqdn.FqdnHostname()
			if err != nil {
				ui.Warn().Msgf("Autodetection using FQDN error: %v", err)
			} else if strings.Contains(f, ".") {
				return strings.ToLower(f[strings.Index(f, ".")+1:])
			}
			return ""
		},
	},
}

// Autodetect fills in domain, server and username from the environment and
// DNS where they were not supplied.
func (opts *Options) Autodetect() error {
	if opts.Port == 0 {
		if opts.TLSMode == TLS {
			opts.Port = 636
		} else {
			opts.Port = 389
		}
	}
	if opts.Domain == "" {
		ui.Info().Msg("No domain supplied, auto-detecting")
		for _, f := range findDomain {
			opts.Domain = f.Func()
			if opts.Domain != "" {
				ui.Info().Msgf("Detected domain as %v from %v", opts.Domain, f.Name)
				break
			}
		}
		if opts.Domain == "" {
			return errors.New("domain auto-detection failed, use '--domain' parameter")
		}
	}
	if opts.Server == "" {
		cname, servers, err := net.LookupSRV("", "", "_ldap._tcp.dc._msdcs."+opts.Domain)
		if err == nil && cname != "" && len(servers) != 0 {
			opts.Server = strings.TrimRight(servers[0].Target, ".")
			ui.Info().Msgf("AD controller detected as: %v", opts.Server)
		} else {
			return errors.New("AD controller auto-detection failed, use '--server' parameter")
		}
	}
	if opts.AuthMode != NTLMSSPI && opts.User == "" {
		opts.User = os.Getenv("USERNAME")
		if opts.User != "" {
			ui.Info().Msgf("Auto-detected username as %v", opts.User)
		} else {
			return errors.New("username autodetection failed, use '--username' parameter")
		}
	}
	if opts.AuthDomain == "" {
		opts.AuthDomain = opts.Domain
	}
	return nil
}
