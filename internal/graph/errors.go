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

package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CodeNetworkError is reported when no HTTP response was received.
const CodeNetworkError = "network_error"

// ServiceError is a failed Graph call. Code and Message come from the
// Graph error body when there is one.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("graph: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("graph: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// graphErrorBody represents the Graph API error envelope.
type graphErrorBody struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		InnerError struct {
			RequestID string `json:"request-id"`
		} `json:"innerError"`
	} `json:"error"`
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

func parseServiceError(resp *http.Response) *ServiceError {
	serr := &ServiceError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope graphErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		serr.Code = envelope.Error.Code
		serr.Message = envelope.Error.Message
		if envelope.Error.InnerError.RequestID != "" {
			serr.RequestID = envelope.Error.InnerError.RequestID
		}
		return serr
	}

	// Gateways and throttling proxies sometimes answer with non-Graph bodies.
	serr.Code = fmt.Sprintf("http_%d", resp.StatusCode)
	serr.Message = strings.TrimSpace(string(body))
	if serr.Message == "" {
		serr.Message = http.StatusText(resp.StatusCode)
	}
	return serr
}
