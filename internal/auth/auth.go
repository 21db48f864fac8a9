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

// Package auth acquires a delegated Graph access token for the signed-in
// user through an interactive OAuth2 flow against the Microsoft identity
// platform. Two flows are supported: authorization code with PKCE and a
// loopback redirect (browser), and the device authorization grant (device).
//
// Endpoint docs: https://learn.microsoft.com/en-us/entra/identity-platform/v2-oauth2-auth-code-flow
package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// Scopes are the delegated permissions the send flow needs: User.Read to
// read /me, Mail.Send to send as the user.
var Scopes = []string{
	"User.Read",
	"Mail.Send",
}

const (
	FlowBrowser = "browser"
	FlowDevice  = "device"
)

// Options configures an Authenticator.
type Options struct {
	ApplicationID string
	Tenant        string
	// Authority overrides the identity provider root, e.g. for sovereign
	// clouds or tests. Empty means the public Microsoft cloud.
	Authority    string
	Flow         string
	RedirectPort int

	// Out receives the sign-in instructions shown to the user.
	Out io.Writer
	// OpenURL launches the authorization URL. Nil means print only.
	OpenURL func(url string) error
}

// Authenticator obtains one access token per call. It caches nothing.
type Authenticator struct {
	oauth        *oauth2.Config
	flow         string
	redirectPort int
	out          io.Writer
	openURL      func(string) error
}

// New creates an Authenticator for a public client application.
func New(opts Options) (*Authenticator, error) {
	if strings.TrimSpace(opts.ApplicationID) == "" {
		return nil, fmt.Errorf("auth: application id is required")
	}

	flow := opts.Flow
	if flow == "" {
		flow = FlowBrowser
	}
	if flow != FlowBrowser && flow != FlowDevice {
		return nil, fmt.Errorf("auth: unsupported flow %q", flow)
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID: opts.ApplicationID,
			Endpoint: endpoint(opts.Authority, opts.Tenant),
			Scopes:   Scopes,
		},
		flow:         flow,
		redirectPort: opts.RedirectPort,
		out:          out,
		openURL:      opts.OpenURL,
	}, nil
}

// endpoint returns the v2.0 endpoints for tenant under authority.
func endpoint(authority, tenant string) oauth2.Endpoint {
	if tenant == "" {
		tenant = "common"
	}

	var ep oauth2.Endpoint
	if authority == "" || authority == "https://login.microsoftonline.com" {
		ep = microsoft.AzureADEndpoint(tenant)
	} else {
		base := strings.TrimRight(authority, "/") + "/" + tenant + "/oauth2/v2.0"
		ep = oauth2.Endpoint{
			AuthURL:  base + "/authorize",
			TokenURL: base + "/token",
		}
	}
	ep.DeviceAuthURL = strings.TrimSuffix(ep.TokenURL, "/token") + "/devicecode"

	// Public clients have no secret; the client id travels in the form body.
	ep.AuthStyle = oauth2.AuthStyleInParams
	return ep
}

// Token runs the configured interactive flow and returns the access token.
// Every failure is returned as *Error.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	slog.Info("acquiring access token",
		"flow", a.flow,
		"scopes", strings.Join(a.oauth.Scopes, " "),
	)

	var (
		tok *oauth2.Token
		err error
	)
	switch a.flow {
	case FlowDevice:
		tok, err = a.deviceCode(ctx)
	default:
		tok, err = a.browser(ctx)
	}
	if err != nil {
		return nil, asError(err)
	}

	slog.Info("access token acquired", "expiry", tok.Expiry)
	return tok, nil
}
