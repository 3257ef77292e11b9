package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Detect    DetectCmd        `cmd:"" help:"Report the dialect of every hand in the input"`
	Split     SplitCmd         `cmd:"" help:"Cut the input into single-hand fragments"`
	Parse     ParseCmd         `cmd:"" help:"Parse hands into the canonical model"`
	Replay    ReplayCmd        `cmd:"" help:"Replay hands and print every table state"`
	Equity    EquityCmd        `cmd:"" help:"Estimate a hand's equity against random or ranged opponents"`
	ExportPHH ExportPHHCmd     `cmd:"export-phh" help:"Convert hands to a PHH session"`
	Serve     ServeCmd         `cmd:"" help:"Run the HTTP and WebSocket service"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("handreplay"),
		kong.Description("Parse, replay and export poker hand histories"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
