package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rubyelders/rb/internal/cli"
	rberrors "github.com/rubyelders/rb/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	code := run(ctx)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context) int {
	c := cli.New(os.Stderr, cli.LogWarn)
	err := c.RootCommand().ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130 // Standard shell convention for SIGINT
	}
	cli.RenderError(os.Stderr, err)
	return rberrors.ExitCode(err)
}
