package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/docent/adapter"
	redisadapter "github.com/pithecene-io/docent/adapter/redis"
	"github.com/pithecene-io/docent/adapter/webhook"
	"github.com/pithecene-io/docent/cli/config"
)

// notifyFlags override the config file's adapter section.
func notifyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion notification adapter: webhook, redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook endpoint or Redis URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.StringFlag{
			Name:  "adapter-codec",
			Usage: "Notification payload codec: json, msgpack",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-attempt notification timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Notification retry attempts",
		},
	}
}

// buildAdapter returns the configured completion adapter, or nil when
// notifications are off.
func buildAdapter(c *cli.Context, cfg *config.Config) (adapter.Adapter, error) {
	ac := configVal(cfg, func(c *config.Config) config.AdapterConfig { return c.Adapter })

	kind := resolveString(c, "adapter", ac.Type)
	if kind == "" {
		return nil, nil
	}
	url := resolveString(c, "adapter-url", ac.URL)
	if url == "" {
		return nil, fmt.Errorf("--adapter-url is required for the %s adapter", kind)
	}

	codec, err := adapter.CodecByName(resolveString(c, "adapter-codec", ac.Codec))
	if err != nil {
		return nil, err
	}
	timeout := resolveDuration(c, "adapter-timeout", ac.Timeout.Duration)
	retries := adapterRetries(c, ac)

	switch kind {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     url,
			Headers: ac.Headers,
			Timeout: timeout,
			Retries: retries,
			Codec:   codec,
		})
	case "redis":
		return redisadapter.New(redisadapter.Config{
			URL:     url,
			Channel: resolveString(c, "adapter-channel", ac.Channel),
			Timeout: timeout,
			Retries: retries,
			Codec:   codec,
		})
	default:
		return nil, fmt.Errorf("unknown adapter %q (expected webhook or redis)", kind)
	}
}

// adapterRetries prefers the flag, then config, then the adapters' shared default.
func adapterRetries(c *cli.Context, ac config.AdapterConfig) int {
	if c.IsSet("adapter-retries") {
		return c.Int("adapter-retries")
	}
	if ac.Retries != nil {
		return *ac.Retries
	}
	return webhook.DefaultRetries
}

// notifyTimeout bounds the whole publish including retries.
const notifyTimeout = 30 * time.Second
