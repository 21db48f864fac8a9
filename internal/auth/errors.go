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
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Error codes used when the provider did not supply one.
const (
	CodeNetworkError = "network_error"
	CodeCanceled     = "authentication_canceled"
	CodeTimeout      = "authentication_timeout"
	CodeStateInvalid = "state_mismatch"
	CodeMissingCode  = "missing_code"
)

// Error is an authentication failure with the provider's error code
// (AADSTS-style OAuth "error" value) and description.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// oauthErrorBody is the standard OAuth2 error response.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// asError normalises any failure from an auth flow into *Error.
func asError(err error) *Error {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		code, msg := rerr.ErrorCode, rerr.ErrorDescription
		if code == "" {
			// The device authorization endpoint error is not parsed by
			// x/oauth2; decode the body ourselves.
			var body oauthErrorBody
			if json.Unmarshal(rerr.Body, &body) == nil && body.Error != "" {
				code, msg = body.Error, body.ErrorDescription
			}
		}
		if code == "" && rerr.Response != nil {
			code = fmt.Sprintf("http_%d", rerr.Response.StatusCode)
		}
		if msg == "" {
			msg = string(rerr.Body)
		}
		return &Error{Code: code, Message: msg, Err: err}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeCanceled, Message: "sign-in was canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeTimeout, Message: "sign-in did not complete in time", Err: err}
	}

	return &Error{Code: CodeNetworkError, Message: err.Error(), Err: err}
}
