package main

import (
	"fmt"
	"io"
	"os"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/cli"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/database"
)

var CLI struct {
	Version kong.VersionFlag

	Analyze cli.AnalyzeCmd `cmd:"" help:"Analyze a food photo and print the result."`
	Summary cli.SummaryCmd `cmd:"" help:"Print daily nutrition summaries for a user."`
	Migrate cli.MigrateCmd `cmd:"" help:"Run database migrations."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("nutrictl"),
		kong.Description("Operator tool for the nutrition backend"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)

	appCtx := &cli.Context{Config: config.Load()}
	defer database.Close()

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
