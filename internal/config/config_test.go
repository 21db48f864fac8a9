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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APPLICATION_ID", "TENANT_ID", "GRAPH_BASE_URL", "LOG_LEVEL",
		"AUTH_FLOW", "AUTHORITY_URL", "DATABASE_URL", "REDIS_URL",
		"AUDIT_QUEUE", "CONFIG_PATH",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad_ExpandsEnvAndAppliesDefaults verifies ${VAR} expansion and the
// defaults for everything the file leaves out.
func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_APP_ID", "11111111-2222-3333-4444-555555555555")

	path := writeConfig(t, "application_id: ${TEST_APP_ID}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ApplicationID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("ApplicationID = %q", cfg.ApplicationID)
	}
	if cfg.Tenant != DefaultTenant {
		t.Errorf("Tenant = %q, want %q", cfg.Tenant, DefaultTenant)
	}
	if cfg.Auth.Flow != FlowBrowser {
		t.Errorf("Auth.Flow = %q, want %q", cfg.Auth.Flow, FlowBrowser)
	}
	if cfg.GraphBaseURL != DefaultGraphBaseURL {
		t.Errorf("GraphBaseURL = %q", cfg.GraphBaseURL)
	}
	if cfg.Message.ContentID != DefaultContentID {
		t.Errorf("ContentID = %q, want %q", cfg.Message.ContentID, DefaultContentID)
	}
	if cfg.Message.CardPath != "Card.json" || cfg.Message.TemplatePath != "MessageBody.html" || cfg.Message.ImagePath != "ActivityImage.jpg" {
		t.Errorf("unexpected resource paths: %+v", cfg.Message)
	}
	if !cfg.Message.SaveToSentItems {
		t.Error("SaveToSentItems should default to true")
	}
	if cfg.Audit.DatabaseURL != "" || cfg.Audit.RedisURL != "" {
		t.Errorf("audit should be disabled by default, got %+v", cfg.Audit)
	}
}

// TestLoad_FileValues verifies explicit YAML values win over defaults.
func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
application_id: app-123
tenant: contoso.onmicrosoft.com
auth:
  flow: DEVICE
  authority: https://login.example.test/
  redirect_port: 8400
graph:
  base_url: https://graph.example.test/v1.0/
message:
  subject: Weekly activity
  card: cards/activity.json
  content_id: hero
  save_to_sent_items: false
audit:
  redis_url: redis://localhost:6379/1
  queue: sends
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Auth.Flow != FlowDevice {
		t.Errorf("Auth.Flow = %q, want %q", cfg.Auth.Flow, FlowDevice)
	}
	if cfg.Auth.Authority != "https://login.example.test" {
		t.Errorf("Authority = %q, trailing slash should be trimmed", cfg.Auth.Authority)
	}
	if cfg.Auth.RedirectPort != 8400 {
		t.Errorf("RedirectPort = %d", cfg.Auth.RedirectPort)
	}
	if cfg.GraphBaseURL != "https://graph.example.test/v1.0" {
		t.Errorf("GraphBaseURL = %q", cfg.GraphBaseURL)
	}
	if cfg.Message.Subject != "Weekly activity" || cfg.Message.CardPath != "cards/activity.json" || cfg.Message.ContentID != "hero" {
		t.Errorf("unexpected message config: %+v", cfg.Message)
	}
	if cfg.Message.SaveToSentItems {
		t.Error("SaveToSentItems should be false when set explicitly")
	}
	if cfg.Audit.RedisURL != "redis://localhost:6379/1" || cfg.Audit.Queue != "sends" {
		t.Errorf("unexpected audit config: %+v", cfg.Audit)
	}
}

// TestLoad_MissingApplicationID verifies that a run without an application
// id is refused.
func TestLoad_MissingApplicationID(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "tenant: common\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing application_id, got nil")
	}
	if !strings.Contains(err.Error(), "application_id") {
		t.Errorf("error should mention application_id, got %v", err)
	}
}

// TestLoad_UnknownFlow verifies flow validation.
func TestLoad_UnknownFlow(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "application_id: app\nauth:\n  flow: password\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported flow, got nil")
	}
}

// TestLoad_MissingExplicitFile verifies that a named file must exist.
func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("APPLICATION_ID", "app")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file, got nil")
	}
}

// TestLoad_EnvOnly verifies that the default path may be absent when the
// application id comes from the environment.
func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("APPLICATION_ID", "env-app")
	t.Setenv("AUTH_FLOW", "device")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ApplicationID != "env-app" {
		t.Errorf("ApplicationID = %q, want env-app", cfg.ApplicationID)
	}
	if cfg.Auth.Flow != FlowDevice {
		t.Errorf("Auth.Flow = %q, want %q", cfg.Auth.Flow, FlowDevice)
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if got := Path(""); got != DefaultPath {
		t.Errorf("Path(\"\") = %q, want %q", got, DefaultPath)
	}

	t.Setenv("CONFIG_PATH", "/etc/sendcard.yaml")
	if got := Path(""); got != "/etc/sendcard.yaml" {
		t.Errorf("Path should honour CONFIG_PATH, got %q", got)
	}
	if got := Path("local.yaml"); got != "local.yaml" {
		t.Errorf("flag value should win, got %q", got)
	}
}
