package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/lithammer/shortuuid/v4"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/slackey/pkg/thrippy"
	"github.com/tzrikka/slackey/pkg/webhook"
)

const (
	DefaultPort = 14480
)

// WebhookFlags defines CLI flags to configure the Slack webhook client. These flags
// can also be set using environment variables and the application's configuration file.
func WebhookFlags(configFilePath altsrc.StringSourcer) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "webhook-url",
			Usage: "Slack Incoming Webhook URL (if not set, use --thrippy-link-id)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_WEBHOOK_URL"),
				toml.TOML("slack.webhook_url", configFilePath),
			),
		},
		&cli.DurationFlag{
			Name:  "webhook-timeout",
			Usage: "timeout for each Slack webhook request",
			Value: webhook.DefaultTimeout,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_WEBHOOK_TIMEOUT"),
				toml.TOML("slack.webhook_timeout", configFilePath),
			),
		},
	}
}

// ServerFlags defines CLI flags to configure the HTTP relay server.
func ServerFlags(configFilePath altsrc.StringSourcer) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "port",
			Usage: "local port number for the HTTP relay server",
			Value: DefaultPort,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACKEY_PORT"),
				toml.TOML("http.port", configFilePath),
			),
		},
	}
}

// NewWebhookClient initializes a Slack webhook client based on CLI flags.
// The webhook URL is taken from the "webhook-url" flag, or from the secrets
// of the Thrippy link specified by the "thrippy-link-id" flag.
func NewWebhookClient(ctx context.Context, cmd *cli.Command) (*webhook.Client, error) {
	u, err := webhookURL(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return webhook.New(webhook.Config{
		WebhookURL: u,
		Transport:  webhook.NewHTTPTransport(webhook.WithTimeout(cmd.Duration("webhook-timeout"))),
	})
}

func webhookURL(ctx context.Context, cmd *cli.Command) (string, error) {
	if u := cmd.String("webhook-url"); u != "" {
		return u, nil
	}

	id := cmd.String("thrippy-link-id")
	if id == "" {
		// Let [webhook.New] report the missing URL.
		return "", nil
	}

	if err := checkLinkID(id); err != nil {
		return "", err
	}

	return thrippy.WebhookURL(ctx, cmd.String("thrippy-server-addr"), thrippy.SecureCreds(cmd), id)
}

var errInvalidLinkID = errors.New("Thrippy link ID is an invalid short UUID")

// checkLinkID fails fast on malformed IDs, before connecting to Thrippy.
func checkLinkID(id string) error {
	if _, err := shortuuid.DefaultEncoder.Decode(id); err != nil {
		return fmt.Errorf("%w: %q", errInvalidLinkID, id)
	}
	return nil
}
