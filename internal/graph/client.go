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

// Package graph is a minimal Microsoft Graph client for the two calls the
// send flow makes: reading the signed-in user's profile and sending mail
// as that user.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/bcem/sendcard/internal/models"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client issues Graph requests on behalf of one signed-in user. It is
// built for a single run and holds the token acquired for that run.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      *oauth2.Token
}

// NewClient creates a Graph client. Every request it sends is decorated
// with token; a nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, baseURL string, token *oauth2.Token) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
	}
}

// Me retrieves the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	url := c.baseURL + "/me?$select=id,displayName,mail,userPrincipalName"

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode /me response: %w", err)
	}

	slog.Debug("fetched signed-in user profile",
		"user_id", user.ID,
		"mail", user.Mail,
	)

	return &user, nil
}

// SendMail submits msg for delivery as the signed-in user. Graph answers
// 202 Accepted with no body; there is nothing to return on success.
func (c *Client) SendMail(ctx context.Context, msg *models.Message, saveToSentItems bool) error {
	payload, err := json.Marshal(models.SendMailRequest{
		Message:         msg,
		SaveToSentItems: saveToSentItems,
	})
	if err != nil {
		return fmt.Errorf("marshal sendMail request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/me/sendMail", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	slog.Debug("sendMail accepted",
		"status", resp.StatusCode,
		"request_id", resp.Header.Get("request-id"),
	)

	return nil
}

// newRequest builds a request and attaches the bearer token explicitly.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", uuid.NewString())
	if c.token != nil {
		c.token.SetAuthHeader(req)
	}
	return req, nil
}

// do sends req and converts transport failures and non-2xx responses into
// a *ServiceError. On success the caller owns resp.Body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{
			Code:    CodeNetworkError,
			Message: err.Error(),
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		serr := parseServiceError(resp)
		slog.Warn("graph request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"status", serr.StatusCode,
			"code", serr.Code,
			"request_id", serr.RequestID,
		)
		return nil, serr
	}

	return resp, nil
}
