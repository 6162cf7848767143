package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BecasLan/BecasScore-sub005/internal/bootstrap"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	fmt.Println("Starting reputation & escalation engine")

	b := bootstrap.New()
	if err := b.Initialize(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}

	if err := b.Start(); err != nil {
		logging.Error("startup failed: %v", err)
		_ = b.Shutdown()
		os.Exit(1)
	}

	logging.Info("engine running, press Ctrl+C to stop")
	waitForShutdown()

	if err := b.Shutdown(); err != nil {
		logging.Error("shutdown error: %v", err)
	}
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nshutdown signal received")
}
