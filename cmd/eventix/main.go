// eventix is the terminal client: it keeps the signed-in session, guards
// role-specific views, and places bookings against eventix-server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/eventix/internal/booking"
	"github.com/Shivanand-hulikatti/eventix/internal/cli"
	"github.com/Shivanand-hulikatti/eventix/internal/config"
	"github.com/Shivanand-hulikatti/eventix/internal/logging"
	"github.com/Shivanand-hulikatti/eventix/internal/sdk"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return 1
	}
	log := logging.NewWithOutput(config.LogConfig{Level: cfg.Client.LogLevel, Format: "text"}, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := sdk.New(cfg.Client.APIURL,
		sdk.WithHTTPClient(&http.Client{Timeout: cfg.Client.RequestTimeout}),
		sdk.WithSessionStore(sdk.NewFileSessionStore(cfg.Client.SessionFile)),
		sdk.WithLogger(log),
	)

	store := session.New(client, client,
		session.WithSafetyTimeout(cfg.Client.SafetyTimeout),
		session.WithFetchTimeout(cfg.Client.ProfileFetchTimeout),
		session.WithLogger(log),
	)
	store.Initialize()
	defer store.Close()

	app := cli.NewApp(client, store, booking.NewWriter(client, booking.WithLogger(log)),
		cli.WithLogger(log),
		cli.WithMaxImageBytes(cfg.Storage.MaxImageBytes),
	)
	if err := app.Root().Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return 1
	}
	return 0
}
