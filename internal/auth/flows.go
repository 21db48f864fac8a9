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

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// callbackResult is what the loopback listener hands back to browser().
type callbackResult struct {
	code string
	err  *Error
}

const callbackPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>sendcard</title></head>
<body style="font-family:sans-serif"><p>%s You can close this window.</p></body></html>`

// browser runs the authorization code flow with PKCE. The user signs in
// in the system browser and the provider redirects to a loopback listener.
func (a *Authenticator) browser(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.redirectPort))
	if err != nil {
		return nil, fmt.Errorf("listen for redirect: %w", err)
	}

	cfg := *a.oauth
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", ln.Addr().(*net.TCPAddr).Port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Warn("redirect listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	fmt.Fprintf(a.out, "Sign in to continue. If your browser does not open, visit:\n\n  %s\n\n", authURL)
	if a.openURL != nil {
		if err := a.openURL(authURL); err != nil {
			slog.Debug("could not open browser", "error", err)
		}
	}

	slog.Debug("waiting for authorization redirect", "redirect_uri", cfg.RedirectURL)

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	return cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
}

// callbackHandler accepts the first redirect that reaches "/" and reports
// either the authorization code or the provider's error.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		var res callbackResult

		switch {
		case q.Get("error") != "":
			res.err = &Error{Code: q.Get("error"), Message: q.Get("error_description")}
		case q.Get("state") != state:
			res.err = &Error{Code: CodeStateInvalid, Message: "authorization response state does not match the request"}
		case q.Get("code") == "":
			res.err = &Error{Code: CodeMissingCode, Message: "authorization response carried no code"}
		default:
			res.code = q.Get("code")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, callbackPage, "Sign-in failed.")
		} else {
			fmt.Fprintf(w, callbackPage, "Sign-in complete.")
		}

		select {
		case results <- res:
		default:
			// a result was already delivered
		}
	})
}

// deviceCode runs the device authorization grant: print the user code,
// then poll the token endpoint until the user finishes signing in.
func (a *Authenticator) deviceCode(ctx context.Context) (*oauth2.Token, error) {
	da, err := a.oauth.DeviceAuth(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "To sign in, visit %s and enter the code %s\n\n", da.VerificationURI, da.UserCode)

	slog.Debug("polling for device authorization",
		"interval", da.Interval,
		"expiry", da.Expiry,
	)

	return a.oauth.DeviceAccessToken(ctx, da)
}
