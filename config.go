// Copyright 2025 Kelly O'Connor. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package redditchat implements the AG-UI bridge between a chat frontend
// and a tool-calling completion server analyzing a single subreddit.
package redditchat

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration with sane presets.
//
//go:embed default_config.yml
var DefaultConfig []byte

// Config defines the configuration format.
type Config struct {
	Server struct {
		Addr string
	}
	Reddit struct {
		Subreddit string
		BaseURL   string `yaml:"base_url"`
	}
	LLM struct {
		BaseURL string `yaml:"base_url"`
		Model   string
	}
}

// Validate checks for obvious errors in the fields.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Reddit.Subreddit == "" || strings.HasPrefix(c.Reddit.Subreddit, "r/") {
		return fmt.Errorf("reddit.subreddit must be a bare community name, got %q", c.Reddit.Subreddit)
	}
	if c.Reddit.BaseURL == "" {
		return fmt.Errorf("reddit.base_url is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// LoadOrDefault loads a config or writes the default to disk.
func (c *Config) LoadOrDefault(config string) error {
	b, err := os.ReadFile(config)
	if os.IsNotExist(err) {
		b = DefaultConfig
		if err = os.WriteFile(config, b, 0o644); err != nil {
			return fmt.Errorf("failed to write default config: %w", err)
		}
	}
	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err = d.Decode(c); err != nil {
		return fmt.Errorf("failed to read %q: %w", config, err)
	}
	return c.Validate()
}
