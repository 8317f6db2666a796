package scan

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/goccy/go-graphviz"
	"github.com/gofrs/uuid"
	"github.com/klarberg/adnest/modules/cli"
	"github.com/klarberg/adnest/modules/directory"
	"github.com/klarberg/adnest/modules/export"
	"github.com/klarberg/adnest/modules/membership"
	"github.com/klarberg/adnest/modules/roots"
	"github.com/klarberg/adnest/modules/ui"
	"github.com/klarberg/adnest/modules/util"
	"github.com/klarberg/adnest/modules/webservice"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	Command = &cobra.Command{
		Use:   "scan",
		Short: "Collects group memberships from Active Directory and builds the nesting report",
	}

	autodetect = Command.Flags().Bool("autodetect", true, "Try to autodetect as much as we can, this will use environment variables and DNS to make this easy")

	server = Command.Flags().String("server", "", "DC to connect to, use IP or full hostname ex. --server=\"dc.contoso.local\", random DC is auto-detected if not supplied")
	port   = Command.Flags().Int("port", 0, "LDAP port to connect to (389 or 636 typical, chosen from TLS mode if not supplied)")
	domain = Command.Flags().String("domain", "", "domain suffix to analyze (contoso.local, auto-detected if not supplied)")
	user   = Command.Flags().String("username", "", "username to connect with (someuser@contoso.local)")
	pass   = Command.Flags().String("password", "", "password to connect with ex. --password hunter42")

	tlsmodeString = Command.Flags().String("tlsmode", "TLS", "Transport mode (TLS, StartTLS, NoTLS)")
	ignoreCert    = Command.Flags().Bool("ignorecert", false, "Disable certificate checks")
	authdomain    = Command.Flags().String("authdomain", "", "domain for authentication, if using ntlm auth")
	nosacl        = Command.Flags().Bool("nosacl", true, "Request data with NO SACL flag, allows normal users to dump protected attributes")
	pagesize      = Command.Flags().Int("pagesize", 1000, "Number of objects per request to collect (increase for performance, but some DCs have limits)")

	rootmodeString = Command.Flags().String("roots", "protected", "Root group selection: protected, file, ou, all")
	rootfile       = Command.Flags().String("rootfile", "", "File with root group names, one per line (with --roots file)")
	oupath         = Command.Flags().String("ou", "", "Organizational unit holding the root groups, name or full DN (with --roots ou)")

	maxdepth      = Command.Flags().Int("maxdepth", membership.DefaultMaxDepth, "Maximum group nesting depth to follow")
	flagattribute = Command.Flags().String("flagattribute", membership.DefaultFlagAttribute, "Attribute that marks protected accounts in the report")

	graphexport  = Command.Flags().Bool("graph", true, "Export DOT and Cytoscape graph files next to the report")
	renderString = Command.Flags().String("render", "none", "Render graph with the embedded Graphviz engine (none, svg, png)")
	bind         = Command.Flags().String("bind", "", "Serve the results over HTTP at this address when the scan is done (ex. 127.0.0.1:8080)")

	authmodeString *string

	opts     directory.Options
	rootopts roots.Options
)

func init() {
	defaultmode := "ntlm"
	if runtime.GOOS == "windows" {
		defaultmode = "ntlmsspi"
	}
	authmodeString = Command.Flags().String("authmode", defaultmode, "Bind mode: unauth, simple, md5, ntlm, ntlmpth (password is hash), ntlmsspi (integrated Windows)")

	cli.Root.AddCommand(Command)
	Command.PreRunE = PreRun
	Command.RunE = Execute
}

// Checks that we have enough data to proceed with the real run
func PreRun(cmd *cobra.Command, args []string) error {
	opts = directory.NewOptions()

	var err error
	opts.TLSMode, err = directory.TLSModeString(*tlsmodeString)
	if err != nil {
		return fmt.Errorf("unknown TLS mode %v", *tlsmodeString)
	}
	opts.AuthMode, err = directory.AuthModeString(*authmodeString)
	if err != nil {
		return fmt.Errorf("unknown LDAP authentication mode %v", *authmodeString)
	}
	rootopts.Mode, err = roots.ModeFromString(*rootmodeString)
	if err != nil {
		return fmt.Errorf("unknown root selection mode %v", *rootmodeString)
	}
	rootopts.File = *rootfile
	rootopts.OU = *oupath

	switch *renderString {
	case "none", "svg", "png":
	default:
		return fmt.Errorf("unknown render format %v", *renderString)
	}

	opts.Domain = *domain
	opts.Server = *server
	opts.Port = uint16(*port)
	opts.User = *user
	opts.Password = *pass
	opts.AuthDomain = *authdomain
	opts.IgnoreCert = *ignoreCert
	opts.NoSACL = *nosacl
	opts.PageSize = *pagesize

	if *autodetect {
		err = opts.Autodetect()
		if err != nil {
			return err
		}
	}

	if opts.Server == "" {
		return errors.New("missing AD controller server name - please provide this on commandline")
	}

	if opts.AuthMode == directory.NTLMSSPI {
		if opts.Password != "" {
			return errors.New("You supplied a password, but authmode is set to NTMLSSPI (integrated authentication). Please change authmode or do not supply a password")
		}
		ui.Info().Msg("Using integrated NTLM authentication")
		return nil
	}

	if opts.User == "" {
		return errors.New("Missing username - please use '--username' parameter")
	}

	if opts.AuthMode != directory.NTLM {
		if opts.Domain != "" && !strings.Contains(opts.User, "@") && !strings.Contains(opts.User, "\\") {
			opts.User = opts.User + "@" + opts.Domain
			ui.Info().Msgf("Username does not contain @ or \\, auto expanding it to %v", opts.User)
		}
	} else if opts.AuthDomain == "" {
		return errors.New("Missing authdomain for NTLM - please use '--authdomain' parameter")
	}

	if opts.Password == "" {
		fmt.Printf("Please enter password for %v: ", opts.User)
		passwd, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			opts.Password = string(passwd)
		}
	}

	return nil
}

func Execute(cmd *cobra.Command, args []string) error {
	session := directory.NewSession(opts)
	err := session.Connect()
	if err != nil {
		return errors.Wrap(err, "problem connecting to AD")
	}
	defer session.Disconnect()

	rootnames, err := roots.Select(session, rootopts)
	if err != nil {
		return err
	}
	if len(rootnames) == 0 {
		ui.Warn().Msg("No root groups selected, the report will be empty")
	} else {
		ui.Info().Msgf("Scanning %v root groups in %v", len(rootnames), opts.Domain)
	}

	builder := membership.NewBuilder(session)
	builder.MaxDepth = *maxdepth
	builder.FlagAttribute = *flagattribute

	combined, skipped := traverseRoots(builder, rootnames)

	scanid, err := uuid.NewV7()
	if err != nil {
		ui.Debug().Msgf("Could not generate a scan id: %v", err)
	}
	prefix := filepath.Join(*cli.Datapath, util.CleanFilename(opts.Domain))

	csvfile := prefix + "-memberships.csv"
	err = export.SaveCSV(csvfile, combined.Records())
	if err != nil {
		return err
	}
	ui.Info().Msgf("Saved %v membership records to %v", len(combined.Records()), csvfile)

	dotfile := prefix + "-graph.dot"
	if *graphexport {
		err = export.SaveDOT(dotfile, combined)
		if err != nil {
			return err
		}
		err = export.SaveCytoscapeJS(prefix+"-graph.json", combined, scanid.String())
		if err != nil {
			return err
		}
		ui.Info().Msgf("Saved membership graph with %v nodes and %v edges to %v", len(combined.Nodes()), len(combined.Edges()), dotfile)

		if *renderString != "none" {
			var dot bytes.Buffer
			err = export.WriteDOT(&dot, combined)
			if err != nil {
				return err
			}
			format := graphviz.SVG
			if *renderString == "png" {
				format = graphviz.PNG
			}
			rendered := prefix + "-graph." + *renderString
			err = export.SaveRendered(rendered, dot.Bytes(), format)
			if err != nil {
				ui.Warn().Msgf("Could not render graph: %v", err)
				ui.Info().Msgf("The DOT file is still usable, %v", export.ManualRenderHint(dotfile))
			} else {
				ui.Info().Msgf("Rendered membership graph to %v", rendered)
			}
		}
	}

	ui.Info().Msgf("Scan %v done: %v roots walked, %v roots skipped, %v membership records", scanid, len(rootnames)-skipped, skipped, len(combined.Records()))

	if *bind != "" {
		ws := webservice.NewWebservice()
		ws.SetModel(combined)
		ws.ServeFiles(*cli.Datapath)

		err = ws.Start(*bind)
		if err != nil {
			return err
		}

		// Wait for webservice to end
		<-ws.QuitChan()
	}

	return nil
}

// traverseRoots walks every root and merges the results. A root that cannot
// be resolved or traversed is skipped with a warning and the remaining roots
// still run; failures inside a traversal are already contained per branch by
// the builder.
func traverseRoots(builder *membership.Builder, rootnames []string) (*membership.Model, int) {
	var skipped int
	models := make([]*membership.Model, 0, len(rootnames))
	pb := ui.ProgressBar("Traversing group memberships", len(rootnames))
	for _, name := range rootnames {
		model, err := builder.WalkName(name)
		if err != nil {
			if errors.Is(err, membership.ErrNotFound) {
				ui.Warn().Msgf("Root group %v not found, skipping", name)
			} else {
				ui.Warn().Msgf("Could not traverse root group %v, skipping: %v", name, err)
			}
			skipped++
			pb.Add(1)
			continue
		}
		models = append(models, model)
		pb.Add(1)
	}
	pb.Finish()
	return membership.Assemble(models...), skipped
}
