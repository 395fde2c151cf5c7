package cmd

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/docent/cli/config"
	"github.com/pithecene-io/docent/cli/render"
)

// QueryCommand returns the query command.
// Failures are absorbed: the command prints an empty result set and exits 0.
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Search the knowledge base",
		ArgsUsage: "<text>",
		Flags: append(BackendFlags(),
			&cli.IntFlag{
				Name:    "top-k",
				Aliases: []string{"k"},
				Usage:   "Maximum number of results (default from config, else 5)",
			},
		),
		Action: queryAction,
	}
}

func queryAction(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return cli.Exit("query text is required: docent query <text>", 1)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for query command", 1)
	}

	b, err := newBackend(c, "query")
	if err != nil {
		return err
	}
	defer b.finish(c)

	results := b.client.Submit(c.Context, text, config.ResolveTopK(c.Int("top-k"), b.cfg))
	return b.renderer.Render(render.QueryResults(results))
}
