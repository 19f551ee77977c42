package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ucn-triumf/epics2midas-modern"
)

func main() {
	rt, err := epics2midas.Open("../../data/config.yaml")
	if err != nil {
		log.Fatalf("open runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("frontend exited: %v", err)
	}
}
