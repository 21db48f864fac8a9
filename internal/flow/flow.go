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

// Package flow runs the send sequence: authenticate, read the user's
// profile, assemble the actionable message, send it, and record the send.
// Every step blocks until it completes and the next one starts only after
// the previous one succeeded.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/bcem/sendcard/internal/auth"
	"github.com/bcem/sendcard/internal/compose"
	"github.com/bcem/sendcard/internal/config"
	"github.com/bcem/sendcard/internal/console"
	"github.com/bcem/sendcard/internal/graph"
	"github.com/bcem/sendcard/internal/models"
)

// TokenSource acquires the access token for one run.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// MailClient is the Graph surface the flow calls.
type MailClient interface {
	Me(ctx context.Context) (*models.User, error)
	SendMail(ctx context.Context, msg *models.Message, saveToSentItems bool) error
}

// Recorder receives a record of every accepted message.
type Recorder interface {
	Record(ctx context.Context, rec *models.SendRecord) error
	Name() string
}

// RunnerConfig holds dependencies for the Runner.
type RunnerConfig struct {
	Auth TokenSource
	// NewClient builds the Graph client around the token acquired for
	// this run.
	NewClient func(token *oauth2.Token) MailClient
	Message   config.MessageConfig
	Recorders []Recorder
}

// Runner executes the send flow.
type Runner struct {
	auth      TokenSource
	newClient func(*oauth2.Token) MailClient
	message   config.MessageConfig
	recorders []Recorder
}

// NewRunner creates a send flow runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		auth:      cfg.Auth,
		newClient: cfg.NewClient,
		message:   cfg.Message,
		recorders: cfg.Recorders,
	}
}

// Result describes a successful run.
type Result struct {
	Recipient string
	Record    *models.SendRecord
	Elapsed   time.Duration
}

// Run executes the flow once. Errors are *auth.Error for sign-in
// failures, *graph.ServiceError for Graph failures, and plain wrapped
// errors for everything else (local files, bad templates).
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	// --- Authenticate ---
	token, err := r.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	client := r.newClient(token)

	// --- Profile ---
	me, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}
	recipient := me.Address()
	if recipient == "" {
		return nil, fmt.Errorf("signed-in user %s has no mail address", me.ID)
	}
	slog.Info("resolved recipient", "recipient", recipient)

	// --- Assemble ---
	body, err := compose.LoadBody(r.message.CardPath, r.message.TemplatePath)
	if err != nil {
		return nil, err
	}
	if !compose.ReferencesContentID(body, r.message.ContentID) {
		slog.Warn("message body does not reference the inline image; it will render as a plain attachment",
			"content_id", r.message.ContentID,
			"template", r.message.TemplatePath,
		)
	}

	image, err := compose.LoadInlineImage(r.message.ImagePath, r.message.ContentID)
	if err != nil {
		return nil, err
	}

	msg := compose.NewMessage(r.message.Subject, recipient, body, image)

	// --- Send ---
	if err := client.SendMail(ctx, msg, r.message.SaveToSentItems); err != nil {
		return nil, err
	}

	rec := &models.SendRecord{
		ID:              uuid.NewString(),
		Recipient:       recipient,
		Subject:         msg.Subject,
		ContentID:       r.message.ContentID,
		BodyBytes:       len(body),
		Attachments:     len(msg.Attachments),
		SaveToSentItems: r.message.SaveToSentItems,
		SentAt:          time.Now().UTC(),
	}

	slog.Info("message sent",
		"record_id", rec.ID,
		"recipient", recipient,
		"body_bytes", rec.BodyBytes,
	)

	// --- Audit ---
	// The mail is already accepted; recorder failures are only logged.
	for _, rc := range r.recorders {
		if err := rc.Record(ctx, rec); err != nil {
			slog.Error("failed to record send", "recorder", rc.Name(), "error", err)
		}
	}

	return &Result{
		Recipient: recipient,
		Record:    rec,
		Elapsed:   time.Since(start),
	}, nil
}

// Describe maps a Run error to the console failure block. handled is
// false for errors outside the authentication and Graph categories.
func Describe(err error) (category, code, message string, handled bool) {
	var aerr *auth.Error
	if errors.As(err, &aerr) {
		return console.CategoryAuth, aerr.Code, aerr.Message, true
	}

	var serr *graph.ServiceError
	if errors.As(err, &serr) {
		return console.CategoryGraph, serr.Code, serr.Message, true
	}

	return "", "", "", false
}
