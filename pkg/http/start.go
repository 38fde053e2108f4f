package http

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/urfave/cli/v3"
)

// Serve initializes Slackey's logging, webhook client, and HTTP relay server.
func Serve(ctx context.Context, cmd *cli.Command) error {
	InitLog(cmd.Bool("dev"))

	ctx = log.Logger.WithContext(ctx)
	c, err := NewWebhookClient(ctx, cmd)
	if err != nil {
		log.Err(err).Msg("failed to initialize Slack webhook client")
		return err
	}

	return newHTTPServer(cmd, c).run()
}

// InitLog initializes the global logger, based
// on whether it's running in development mode or not.
func InitLog(devMode bool) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if !devMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()
		return
	}

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05.000",
	}).With().Caller().Logger()

	log.Warn().Msg("********** DEV MODE - UNSAFE IN PRODUCTION! **********")
}
