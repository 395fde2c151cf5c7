package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/docent/cli/config"
	"github.com/pithecene-io/docent/cli/render"
	"github.com/pithecene-io/docent/client"
	"github.com/pithecene-io/docent/log"
	"github.com/pithecene-io/docent/metrics"
)

// backend bundles what every backend command builds at startup.
// The base URL is resolved once here and never changes afterwards.
type backend struct {
	cfg       *config.Config
	apiBase   string
	logger    *log.Logger
	collector *metrics.Collector
	client    *client.Client
	renderer  *render.Renderer
}

// newBackend loads config and builds the logger, counters and HTTP client.
func newBackend(c *cli.Context, component string) (*backend, error) {
	r, err := render.NewRenderer(c)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := resolveString(c, "log-level", configVal(cfg, func(c *config.Config) string { return c.LogLevel }))
	logger, err := log.New(log.Options{
		Component: component,
		Level:     level,
		Output:    errWriter(c),
	})
	if err != nil {
		return nil, err
	}

	apiBase := config.ResolveAPIBase(c.String("api-base"), cfg, os.Getenv)
	collector := metrics.NewCollector(apiBase)

	timeout := resolveDuration(c, "timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.Timeout.Duration }))
	opts := []client.Option{
		client.WithLogger(logger.WithComponent("client")),
		client.WithCollector(collector),
	}
	if timeout > 0 {
		opts = append(opts, client.WithTimeout(timeout))
	}

	logger.Debug("backend resolved", map[string]any{
		"api_base": apiBase,
		"timeout":  timeout.String(),
	})

	return &backend{
		cfg:       cfg,
		apiBase:   apiBase,
		logger:    logger,
		collector: collector,
		client:    client.New(apiBase, opts...),
		renderer:  r,
	}, nil
}

// finish prints counters when --stats is set and flushes the logger.
func (b *backend) finish(c *cli.Context) {
	if c.Bool("stats") {
		sr := render.NewRendererWithWriter(b.renderer.Format(), b.renderer.NoColor(), errWriter(c))
		if err := sr.Render(b.collector.Snapshot()); err != nil {
			b.logger.Warn("failed to render stats", map[string]any{"error": err.Error()})
		}
	}
	_ = b.logger.Sync()
}

// errWriter returns the app's error writer, os.Stderr by default.
func errWriter(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
