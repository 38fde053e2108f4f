package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/slackey/pkg/http"
	"github.com/tzrikka/slackey/pkg/thrippy"
	"github.com/tzrikka/xdg"
)

const (
	ConfigDirName  = "slackey"
	ConfigFileName = "config.toml"
)

func main() {
	buildInfo, _ := debug.ReadBuildInfo()
	configFilePath := configFile()

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "dev",
			Usage: "simple setup, but unsafe for production",
		},
	}
	flags = append(flags, http.WebhookFlags(configFilePath)...)
	flags = append(flags, thrippy.Flags(configFilePath)...)

	cmd := &cli.Command{
		Name:    "slackey",
		Usage:   "Post messages to a Slack Incoming Webhook",
		Version: buildInfo.Main.Version,
		Flags:   flags,
		Commands: []*cli.Command{
			sendCommand(),
			{
				Name:   "serve",
				Usage:  "Relay messages to the Slack webhook over a local HTTP server",
				Flags:  http.ServerFlags(configFilePath),
				Action: http.Serve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// configFile returns the path to the app's configuration file.
// It also creates an empty file if it doesn't already exist.
func configFile() altsrc.StringSourcer {
	path, err := xdg.CreateFile(xdg.ConfigHome, ConfigDirName, ConfigFileName)
	if err != nil {
		log.Fatal().Err(err).Caller().Send()
	}
	return altsrc.StringSourcer(path)
}
