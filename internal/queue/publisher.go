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

// Package queue publishes send audit events to a Redis list so that other
// services can react to actionable messages going out.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bcem/sendcard/internal/models"
)

// EventMessageSent is the event type pushed for every accepted message.
const EventMessageSent = "message.sent"

// Publisher pushes audit events onto a Redis list.
type Publisher struct {
	rdb       redis.Cmdable
	queueName string
}

// NewPublisher creates a new Redis publisher targeting the specified queue.
func NewPublisher(rdb redis.Cmdable, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// event is the JSON envelope pushed to Redis.
type event struct {
	Type    string             `json:"type"`
	Version int                `json:"version"`
	Record  *models.SendRecord `json:"record"`
}

// Record serialises rec and LPUSHes it onto the queue. Consumers BRPOP
// from the other end.
func (p *Publisher) Record(ctx context.Context, rec *models.SendRecord) error {
	msgJSON, err := json.Marshal(event{
		Type:    EventMessageSent,
		Version: 1,
		Record:  rec,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, string(msgJSON)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published send audit event",
		"record_id", rec.ID,
		"queue", p.queueName,
	)

	return nil
}

// Name identifies the recorder in logs.
func (p *Publisher) Name() string { return "redis:" + p.queueName }

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
