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

package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/bcem/sendcard/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestBuildRecorders_Disabled verifies no backends are contacted when the
// audit trail is not configured.
func TestBuildRecorders_Disabled(t *testing.T) {
	recorders, closeAll, err := buildRecorders(context.Background(), config.AuditConfig{Queue: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeAll()

	if len(recorders) != 0 {
		t.Errorf("expected no recorders, got %d", len(recorders))
	}
}

func TestBuildRecorders_InvalidRedisURL(t *testing.T) {
	_, _, err := buildRecorders(context.Background(), config.AuditConfig{RedisURL: "not-a-url", Queue: "q"})
	if err == nil {
		t.Fatal("expected error for invalid redis url, got nil")
	}
}
