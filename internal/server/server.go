package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/frontend"
	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Run starts the server and blocks until the context is canceled.
//
// If started is not nil, the server state is sent on it once the listener is
// bound, so callers using an automatic port can learn the address.
func Run(ctx context.Context, cfg config.Config, started chan<- *ServerState) error {
	// Initialize global frontend state for server-side prerendering without panic
	frontend.InitState()

	// Register go-app routes so the server knows how to prerender them
	app.Route("/", func() app.Composer { return &frontend.Home{} })
	app.Route("/play", func() app.Composer { return &frontend.Game{} })

	// The web assets and the compiled webassembly
	// are served natively by the go-app framework
	h := &app.Handler{
		Name:        "GoMemory",
		Title:       "GoMemory",
		Description: game.Description,
		Version:     game.Version,
		Styles: []string{
			"/web/css/main.css",
		},
	}

	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:0"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	serverState := NewServerState(cfg)
	serverState.Address = listener.Addr().String()

	mux := http.NewServeMux()

	// Register WebSocket endpoint for the notification relay
	mux.HandleFunc("/ws", serverState.HandleWS)
	mux.HandleFunc("/test/game", serverState.HandleTestGame)

	// Serve the go-app UI
	// We want to serve /web for static files
	mux.Handle("/web/", http.StripPrefix("/web/", http.FileServer(http.Dir("web/"))))
	mux.Handle("/", h)

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		klog.Infof("Server started on %s", serverState.Address)
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			klog.Errorf("Server error: %v", err)
		}
	}()
	if started != nil {
		started <- serverState
	}

	<-ctx.Done()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	klog.Infof("Shutting down server...")
	serverState.CloseAll()
	return srv.Shutdown(shutdownCtx)
}
