package webservice

import (
	"github.com/klarberg/adnest/modules/cli"
	"github.com/spf13/cobra"
)

var (
	Command = &cobra.Command{
		Use:   "serve",
		Short: "Serves previously exported reports over HTTP",
	}

	bind = Command.Flags().String("bind", "127.0.0.1:8080", "Address and port of webservice to bind to")
)

func init() {
	cli.Root.AddCommand(Command)
	Command.RunE = Execute
}

func Execute(cmd *cobra.Command, args []string) error {
	ws := NewWebservice()
	ws.ServeFiles(*cli.Datapath)

	err := ws.Start(*bind)
	if err != nil {
		return err
	}

	// Wait for webservice to end
	<-ws.QuitChan()
	return nil
}
