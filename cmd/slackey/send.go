package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/slackey/pkg/http"
)

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Post a single message to the Slack webhook",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "text",
				Aliases: []string{"t"},
				Usage:   "message text (default: the command's arguments)",
			},
			&cli.StringFlag{
				Name:  "channel",
				Usage: "override the webhook's default channel (legacy webhooks only)",
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "override the webhook's default username (legacy webhooks only)",
			},
			&cli.StringFlag{
				Name:  "icon-emoji",
				Usage: "override the webhook's default icon with an emoji, e.g. \":robot_face:\"",
			},
			&cli.StringFlag{
				Name:  "icon-url",
				Usage: "override the webhook's default icon with an image URL",
			},
			&cli.StringFlag{
				Name:  "thread-ts",
				Usage: "reply in the thread of this message timestamp",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: `raw JSON payload ("-" to read from stdin), instead of the flags above`,
			},
		},
		Action: send,
	}
}

func send(ctx context.Context, cmd *cli.Command) error {
	http.InitLog(cmd.Bool("dev"))
	ctx = log.Logger.WithContext(ctx)

	p, err := payload(cmd, os.Stdin)
	if err != nil {
		return err
	}

	c, err := http.NewWebhookClient(ctx, cmd)
	if err != nil {
		return err
	}

	if err := c.Post(ctx, p); err != nil {
		return err
	}

	log.Info().Msg("message sent")
	return nil
}

// payload constructs the webhook message based on CLI flags and arguments.
func payload(cmd *cli.Command, stdin io.Reader) (any, error) {
	if raw := cmd.String("json"); raw != "" {
		if cmd.IsSet("text") || cmd.Args().Present() {
			return nil, errors.New("--json cannot be combined with message text")
		}
		return jsonPayload(raw, stdin)
	}

	text := cmd.String("text")
	if text == "" {
		text = strings.Join(cmd.Args().Slice(), " ")
	}
	if text == "" {
		return nil, errors.New("missing message text")
	}

	return &slack.WebhookMessage{
		Text:            text,
		Channel:         cmd.String("channel"),
		Username:        cmd.String("username"),
		IconEmoji:       cmd.String("icon-emoji"),
		IconURL:         cmd.String("icon-url"),
		ThreadTimestamp: cmd.String("thread-ts"),
	}, nil
}

func jsonPayload(raw string, stdin io.Reader) (map[string]any, error) {
	b := []byte(raw)
	if raw == "-" {
		var err error
		if b, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("failed to read JSON payload from stdin: %w", err)
		}
	}

	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	if m == nil {
		return nil, errors.New("JSON payload must be an object")
	}

	return m, nil
}
