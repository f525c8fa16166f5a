// Command portauth-admin is the administrative CLI.
package main

import (
	"os"

	"github.com/logigrain/portauth/cmd/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
