package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	aibot "github.com/Pacifique5/AI-BOT"
	"github.com/Pacifique5/AI-BOT/internal/gateway"
	"github.com/Pacifique5/AI-BOT/internal/handlers"
	"github.com/Pacifique5/AI-BOT/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	// Load .env before the config so environment fallbacks for credentials work
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(fmt.Errorf("error loading config: %w", err))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.logLevel(),
	}))

	completer, err := cfg.LLM.completer(logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error configuring llm provider: %w", err))
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	gw := gateway.New(completer, timeout, logger)

	// The front-end reaches the gateway over HTTP like any other client; by default that is this
	// process's own chat endpoint.
	gatewayURL := cfg.GatewayURL
	if gatewayURL == "" {
		gatewayURL = "http://127.0.0.1:" + cfg.Port
	}

	// The controller's client timeout sits above the gateway's upstream timeout so a slow upstream
	// is reported as a gateway timeout, not a transport failure.
	sessions := session.NewManager(gatewayURL, cfg.Persona, timeout+10*time.Second, logger)

	m, err := handlers.NewMain(sessions, logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating handlers: %w", err))
	}

	// Serve static files
	staticFS, err := fs.Sub(aibot.StaticFS, "static")
	if err != nil {
		log.Fatal(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	// Create custom mux
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/chats", m.HandleChat)
	mux.HandleFunc("/connectivity", m.HandleConnectivity)
	mux.HandleFunc("/sse", m.HandleSSE)

	// Gateway endpoints carry permissive CORS so external front-ends can use them too
	mux.Handle("/chat", gateway.WithCORS(http.HandlerFunc(gw.HandleChat)))
	mux.Handle("/health", gateway.WithCORS(http.HandlerFunc(gw.HandleHealth)))

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown sse server: %v", err)
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Println("Server starting on :" + cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		log.Printf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Start shutdown, signal: %v", sig)

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("Forcing server close: %v", err)
			}
		}
	}
}
