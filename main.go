package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"airbnb-cleaner/cli"
	"airbnb-cleaner/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(func(ctx context.Context, opts cli.Options) error {
		return cli.Run(ctx, opts, os.Stdout)
	})

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.NewLogger().Error("%v", err)
		stop()
		os.Exit(1)
	}
}
