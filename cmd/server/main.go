package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/server"
	"k8s.io/klog/v2"
)

var (
	flagAddr    = flag.String("addr", "", "Address to listen on (default: $GOMEMORY_ADDR, or auto-port on localhost)")
	flagEnvFile = flag.String("env", ".env", "Optional .env file with GOMEMORY_* defaults")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg, err := config.Load(*flagEnvFile)
	if err != nil {
		klog.Fatalf("Failed to load configuration: %v", err)
	}
	if *flagAddr != "" {
		cfg.Addr = *flagAddr
	}
	if err := cfg.Validate(); err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}

	started := make(chan *server.ServerState, 1)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		state := <-started
		fmt.Printf("GoMemory server listening on http://%s\n", state.Address)
	}()

	if err := server.Run(ctx, cfg, started); err != nil {
		klog.Fatal(err)
	}
}
