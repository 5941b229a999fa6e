package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mwantia/mediaindex/cmd/mediaindex/cli"
	"github.com/mwantia/mediaindex/cmd/mediaindex/cli/client"
	"github.com/mwantia/mediaindex/cmd/mediaindex/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(server.NewScanCommand())
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(client.NewMediaCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
