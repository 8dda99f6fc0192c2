package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Snider/Preloader/cmd"
	"github.com/Snider/Preloader/pkg/logger"
)

var osExit = os.Exit

func main() {
	Main()
}

func Main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New(false)
	if err := cmd.Execute(ctx, log); err != nil {
		log.Error("fatal error", "err", err)
		cancel()
		osExit(1)
	}
}
