package main

import (
	"github.com/alecthomas/kong"

	"github.com/mheir/blogsmith/cmd/blogsmith/commands"
	"github.com/mheir/blogsmith/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("blogsmith"),
		kong.Description("Build and deploy a personal blog from Markdown content and a pinned theme."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}, cli))
}
