// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// AG-UI backend to chat about a subreddit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	redditchat "github.com/kellyoconor/reddit-chat-beta1"
	"github.com/kellyoconor/reddit-chat-beta1/agent"
	"github.com/kellyoconor/reddit-chat-beta1/internal"
	"github.com/kellyoconor/reddit-chat-beta1/llm"
	"github.com/kellyoconor/reddit-chat-beta1/reddit"
)

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	programLevel := &slog.LevelVar{}
	internal.InitLog(programLevel)

	cfg := redditchat.Config{}
	addr := flag.String("addr", "", "Address to listen on; overrides the configuration file")
	config := flag.String("config", "config.yml", "Configuration file. If not present, it is automatically created.")
	version := flag.Bool("version", false, "Print version then exit")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return errors.New("unexpected argument")
	}
	if *version {
		fmt.Printf("reddit-chat %s\n", internal.Commit())
		return nil
	}
	if *verbose {
		programLevel.Set(slog.LevelDebug)
	}
	// Best effort; the key can come from the real environment too.
	_ = godotenv.Load()
	if err := cfg.LoadOrDefault(*config); err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		// Tolerated so the health endpoints work; the first completion call
		// will fail with an authentication error instead.
		slog.Warn("main", "message", "OPENAI_API_KEY is not set; completion calls will fail")
	}

	c := &llm.Client{BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model, APIKey: apiKey}
	r := reddit.New(cfg.Reddit.Subreddit)
	r.BaseURL = cfg.Reddit.BaseURL
	a := agent.New(c, r)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: redditchat.NewServer(a, cfg.Reddit.Subreddit),
	}

	done := make(chan error, 1)
	go func() {
		slog.Info("main", "state", "listening", "addr", cfg.Server.Addr, "subreddit", cfg.Reddit.Subreddit)
		done <- srv.ListenAndServe()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	slog.Info("main", "message", "quitting")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "reddit-chat: %v\n", err.Error())
		os.Exit(1)
	}
}
