// Command jamplate is the CLI front-end for the template engine: it
// renders a document once, dumps its parsed/compiled structure for
// debugging, or serves a watch loop that re-renders on every change.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/jamplate/jamplate/internal/logging"
)

const version = "0.1.0"

// CLI defines jamplate's noun-first command surface.
var CLI struct {
	Dialect string `help:"Template dialect to compile with: directives, arithmetic, or pairs." enum:"directives,arithmetic,pairs" default:"directives"`
	Verbose bool   `help:"Enable debug-level logging." short:"v"`

	Run     RunCmd     `cmd:"" help:"Render a document to stdout."`
	Tokens  TokensCmd  `cmd:"" help:"Dump a document's parsed tree structure."`
	Watch   WatchCmd   `cmd:"" help:"Serve a document, re-rendering over a websocket on every change."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// VersionCmd prints the CLI's own version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("jamplate version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("jamplate"),
		kong.Description("Jamplate template engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if CLI.Verbose {
		logging.InitLogger(logging.LevelDebug, logging.FormatText)
	}
	err := ctx.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	ctx.FatalIfErrorf(err)
}
