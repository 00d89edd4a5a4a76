// Command overlayctl manages the overlays of a running overlay server and
// checks that its stream can be played.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"overlay-studio/internal/platform/config"
)

func main() {
	_ = config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
