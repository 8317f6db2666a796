package main

import (
	"os"

	"github.com/klarberg/adnest/modules/cli"
	_ "github.com/klarberg/adnest/modules/scan"
	_ "github.com/klarberg/adnest/modules/webservice"
)

func main() {
	err := cli.Run()
	if err != nil {
		os.Exit(1)
	}
}
