package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterh/liner"

	"chat-client/internal/config"
	"chat-client/internal/engine"
	"chat-client/internal/websocket"
	"chat-client/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	log, err := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetGlobal(log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the chat server
	client := websocket.NewClient(websocket.Options{
		URL:              cfg.Server.URL,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		PongWait:         cfg.Server.PongWait,
		ReconnectDelay:   cfg.Server.ReconnectDelay,
		ReconnectBurst:   cfg.Server.ReconnectBurst,
	})
	if err := client.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect to %s: %v", cfg.Server.URL, err)
	}
	defer client.Close()
	go client.Run(ctx)

	eng := engine.New(client, engine.Options{
		Logger:               log,
		Alerter:              bell{w: os.Stdout},
		TypingInterval:       cfg.Chat.TypingInterval,
		TypingExpiry:         cfg.Chat.TypingExpiry,
		NotificationCapacity: cfg.Chat.NotificationCapacity,
		RefreshOnReconnect:   cfg.Chat.RefreshOnReconnect,
	})
	go eng.Run(ctx)
	defer eng.Close()

	logger.Info("Connected to %s", cfg.Server.URL)

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	done := make(chan error, 1)
	r := newREPL(eng, line, os.Stdout)
	go func() { done <- r.run(ctx, cfg.Chat.Username) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Session ended: %v", err)
		}
	case <-ctx.Done():
		fmt.Fprintln(os.Stdout)
	}
	logger.Info("Client shutting down...")
}

// bell rings the terminal bell for private messages that arrive off screen.
type bell struct {
	w io.Writer
}

func (b bell) Alert(string, string) {
	fmt.Fprint(b.w, "\a")
}
