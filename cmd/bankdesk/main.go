package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/mleroy-dev/bankdesk/auth"
	"github.com/mleroy-dev/bankdesk/bank"
	"github.com/mleroy-dev/bankdesk/console"
	"github.com/mleroy-dev/bankdesk/gateway"
	"github.com/mleroy-dev/bankdesk/internal/config"
	"github.com/mleroy-dev/bankdesk/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("console exited with error")
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = gotenv.Load()
	c := config.New()
	setupLogging(c.GetLogLevel())
	displayAppName(c.GetAppName())

	store := session.NewStore()
	api := gateway.New(c.GetBaseURL(), store, gateway.WithTimeout(c.GetHTTPTimeout()))
	sessions := session.NewManager(store, auth.NewService(api), api)

	log.Debug().Str("base_url", api.BaseURL()).Msg("backend configured")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return console.New(sessions, bank.NewService(api), os.Stdin, os.Stdout).Run(ctx)
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func displayAppName(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
