package main

import (
	"context"
	"fmt"
	"os"

	authcmd "github.com/solidsilver/cftun/cmd/cftun/commands/auth"
	checkcmd "github.com/solidsilver/cftun/cmd/cftun/commands/check"
	cleanupcmd "github.com/solidsilver/cftun/cmd/cftun/commands/cleanup"
	exposecmd "github.com/solidsilver/cftun/cmd/cftun/commands/expose"
	statuscmd "github.com/solidsilver/cftun/cmd/cftun/commands/status"
	"github.com/urfave/cli/v3"
)

var (
	// Version information (will be set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "cftun",
		Usage:   "Expose a local port under a public domain via Cloudflare Tunnel",
		Version: Version,
		Commands: []*cli.Command{
			authcmd.Command,
			checkcmd.Command,
			cleanupcmd.Command,
			exposecmd.Command,
			statuscmd.Command,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
