// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is used when neither --config nor CONFIG_PATH is given.
	DefaultPath = "config.yaml"

	DefaultTenant       = "common"
	DefaultAuthority    = "https://login.microsoftonline.com"
	DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultSubject      = "Actionable message sent from code"
	DefaultContentID    = "activity_image"
	DefaultAuditQueue   = "actionable-sent"

	FlowBrowser = "browser"
	FlowDevice  = "device"
)

// AuthConfig selects how the interactive sign-in happens.
type AuthConfig struct {
	Flow         string // "browser" or "device"
	Authority    string
	RedirectPort int
}

// MessageConfig names the local resources and fixed message properties.
type MessageConfig struct {
	Subject         string
	CardPath        string
	TemplatePath    string
	ImagePath       string
	ContentID       string
	SaveToSentItems bool
}

// AuditConfig enables the optional send audit trail. Empty URLs disable
// the corresponding recorder.
type AuditConfig struct {
	DatabaseURL string
	RedisURL    string
	Queue       string
}

// Config holds all configuration for a send run.
type Config struct {
	ApplicationID string
	Tenant        string
	GraphBaseURL  string
	LogLevel      string

	Auth    AuthConfig
	Message MessageConfig
	Audit   AuditConfig
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	ApplicationID string `yaml:"application_id"`
	Tenant        string `yaml:"tenant"`
	LogLevel      string `yaml:"log_level"`
	Auth          struct {
		Flow         string `yaml:"flow"`
		Authority    string `yaml:"authority"`
		RedirectPort int    `yaml:"redirect_port"`
	} `yaml:"auth"`
	Graph struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"graph"`
	Message struct {
		Subject         string `yaml:"subject"`
		Card            string `yaml:"card"`
		Template        string `yaml:"template"`
		Image           string `yaml:"image"`
		ContentID       string `yaml:"content_id"`
		SaveToSentItems *bool  `yaml:"save_to_sent_items"`
	} `yaml:"message"`
	Audit struct {
		DatabaseURL string `yaml:"database_url"`
		RedisURL    string `yaml:"redis_url"`
		Queue       string `yaml:"queue"`
	} `yaml:"audit"`
}

// Path returns the config file location: the explicit flag value if set,
// then CONFIG_PATH, then DefaultPath.
func Path(flagValue string) string {
	return firstNonEmpty(flagValue, envOrDefault("CONFIG_PATH", DefaultPath))
}

// Load reads configuration from the YAML file at path (with env var
// expansion) and fills the gaps from environment variables and defaults.
// A missing file is only tolerated at DefaultPath.
func Load(path string) (*Config, error) {
	var raw rawConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		// env-only configuration
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	saveToSent := true
	if raw.Message.SaveToSentItems != nil {
		saveToSent = *raw.Message.SaveToSentItems
	}

	cfg := &Config{
		ApplicationID: firstNonEmpty(raw.ApplicationID, os.Getenv("APPLICATION_ID")),
		Tenant:        firstNonEmpty(raw.Tenant, envOrDefault("TENANT_ID", DefaultTenant)),
		GraphBaseURL:  strings.TrimRight(firstNonEmpty(raw.Graph.BaseURL, envOrDefault("GRAPH_BASE_URL", DefaultGraphBaseURL)), "/"),
		LogLevel:      firstNonEmpty(raw.LogLevel, envOrDefault("LOG_LEVEL", "info")),
		Auth: AuthConfig{
			Flow:         strings.ToLower(firstNonEmpty(raw.Auth.Flow, envOrDefault("AUTH_FLOW", FlowBrowser))),
			Authority:    strings.TrimRight(firstNonEmpty(raw.Auth.Authority, envOrDefault("AUTHORITY_URL", DefaultAuthority)), "/"),
			RedirectPort: raw.Auth.RedirectPort,
		},
		Message: MessageConfig{
			Subject:         firstNonEmpty(raw.Message.Subject, DefaultSubject),
			CardPath:        firstNonEmpty(raw.Message.Card, "Card.json"),
			TemplatePath:    firstNonEmpty(raw.Message.Template, "MessageBody.html"),
			ImagePath:       firstNonEmpty(raw.Message.Image, "ActivityImage.jpg"),
			ContentID:       firstNonEmpty(raw.Message.ContentID, DefaultContentID),
			SaveToSentItems: saveToSent,
		},
		Audit: AuditConfig{
			DatabaseURL: firstNonEmpty(raw.Audit.DatabaseURL, os.Getenv("DATABASE_URL")),
			RedisURL:    firstNonEmpty(raw.Audit.RedisURL, os.Getenv("REDIS_URL")),
			Queue:       firstNonEmpty(raw.Audit.Queue, envOrDefault("AUDIT_QUEUE", DefaultAuditQueue)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ApplicationID) == "" {
		return fmt.Errorf("application_id is not configured; set it in the config file or APPLICATION_ID")
	}
	if c.Auth.Flow != FlowBrowser && c.Auth.Flow != FlowDevice {
		return fmt.Errorf("unsupported auth flow %q (want %q or %q)", c.Auth.Flow, FlowBrowser, FlowDevice)
	}
	if c.Auth.RedirectPort < 0 || c.Auth.RedirectPort > 65535 {
		return fmt.Errorf("invalid auth.redirect_port %d", c.Auth.RedirectPort)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
