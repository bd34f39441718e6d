// Command baratazo crawls supermarket catalogs into a comparable price database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/config/file"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/cli"
	"github.com/AlbertoRQ/Baratazo/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "baratazo: %v\n", err)
		return err
	}

	cli.SetVersion(version)
	cli.SetSettingsService(services.NewSettingsService(configStore))
	cli.SetRuntime(appRuntime{})
	cli.SetConfigWatcher(configStore)

	return cli.Execute(ctx)
}
