package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/docent/cli/config"
	"github.com/pithecene-io/docent/cli/render"
	"github.com/pithecene-io/docent/cli/tui"
	"github.com/pithecene-io/docent/filesrc"
	"github.com/pithecene-io/docent/runtime"
	"github.com/pithecene-io/docent/types"
)

// UploadCommand returns the upload command.
// Files are ingested one at a time in argument order. Exit code 1 when any
// item ends in error.
func UploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Ingest local files or s3:// objects into the knowledge base",
		ArgsUsage: "<file|s3://bucket/key>...",
		Flags: append(BackendFlags(),
			&cli.StringFlag{
				Name:  "s3-region",
				Usage: "AWS region for s3:// sources",
			},
			&cli.StringFlag{
				Name:  "s3-endpoint",
				Usage: "Custom S3 endpoint for S3-compatible providers",
			},
			&cli.BoolFlag{
				Name:  "s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
		),
		Action: uploadAction,
	}
}

func uploadAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one file is required: docent upload <file>...", 1)
	}

	b, err := newBackend(c, "upload")
	if err != nil {
		return err
	}
	defer b.finish(c)

	resolver := &filesrc.Resolver{
		S3: func(ctx context.Context) (filesrc.S3API, error) {
			client, err := filesrc.NewS3Client(ctx, s3Config(c, b.cfg))
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
	files, err := resolver.Resolve(c.Context, c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	queue := runtime.NewUploadQueue(b.client, runtime.UploadOptions{
		Logger:    b.logger.WithComponent("upload"),
		Collector: b.collector,
	})
	queue.Enqueue(ctx, files)

	if c.Bool("tui") {
		if err := tui.RunUpload(queue); err != nil {
			return fmt.Errorf("tui failed: %w", err)
		}
	} else if err := queue.Wait(ctx); err != nil {
		b.logger.Warn("stopped waiting for uploads", map[string]any{"error": err.Error()})
	}

	items := queue.Items()
	if err := b.renderer.Render(render.UploadItems(items)); err != nil {
		return err
	}
	return uploadExit(items)
}

// s3Config resolves the S3 client settings from flags and config.
func s3Config(c *cli.Context, cfg *config.Config) filesrc.S3Config {
	sc := configVal(cfg, func(c *config.Config) config.S3Config { return c.S3 })
	pathStyle := sc.PathStyle
	if c.IsSet("s3-path-style") {
		pathStyle = c.Bool("s3-path-style")
	}
	return filesrc.S3Config{
		Region:       resolveString(c, "s3-region", sc.Region),
		Endpoint:     resolveString(c, "s3-endpoint", sc.Endpoint),
		UsePathStyle: pathStyle,
	}
}

// uploadExit returns nil when every item is done.
func uploadExit(items []types.UploadItem) error {
	var failed, pending int
	for _, item := range items {
		switch {
		case item.Status == types.UploadStatusError:
			failed++
		case !item.Status.IsTerminal():
			pending++
		}
	}
	switch {
	case pending > 0:
		return cli.Exit(fmt.Sprintf("upload interrupted: %d of %d items unfinished", pending, len(items)), 1)
	case failed > 0:
		return cli.Exit(fmt.Sprintf("%d of %d uploads failed", failed, len(items)), 1)
	default:
		return nil
	}
}
