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

// Package compose assembles the actionable message: the card JSON is
// embedded into an HTML template and an inline image is attached under the
// content id the template references.
package compose

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcem/sendcard/internal/models"
)

// Placeholder marks where the card JSON goes in the HTML template.
const Placeholder = "{0}"

// ErrNoPlaceholder is returned for templates without Placeholder.
var ErrNoPlaceholder = errors.New("template has no " + Placeholder + " placeholder")

// Interpolate inserts cardJSON into template at the first Placeholder.
// The card text is inserted as-is: it is neither validated nor escaped.
func Interpolate(template, cardJSON string) (string, error) {
	idx := strings.Index(template, Placeholder)
	if idx < 0 {
		return "", ErrNoPlaceholder
	}
	return template[:idx] + cardJSON + template[idx+len(Placeholder):], nil
}

// LoadBody reads the card JSON and HTML template and returns the message body.
func LoadBody(cardPath, templatePath string) (string, error) {
	card, err := os.ReadFile(cardPath)
	if err != nil {
		return "", fmt.Errorf("read card: %w", err)
	}

	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}

	body, err := Interpolate(string(tmpl), string(card))
	if err != nil {
		return "", fmt.Errorf("template %s: %w", templatePath, err)
	}
	return body, nil
}

// LoadInlineImage reads an image file into an inline attachment. Name and
// ContentID are both set to contentID; Outlook resolves cid: references
// against either depending on the client.
func LoadInlineImage(path, contentID string) (models.FileAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FileAttachment{}, fmt.Errorf("read image: %w", err)
	}

	return models.FileAttachment{
		ODataType:    models.FileAttachmentType,
		Name:         contentID,
		ContentType:  contentType(path),
		ContentID:    contentID,
		IsInline:     true,
		ContentBytes: data,
	}, nil
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		// drop parameters such as charset
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
		return ct
	}
	return "application/octet-stream"
}

// NewMessage builds the outgoing message: one recipient, HTML body, and
// the given attachments.
func NewMessage(subject, recipient, htmlBody string, attachments ...models.FileAttachment) *models.Message {
	return &models.Message{
		Subject: subject,
		Body: models.ItemBody{
			ContentType: models.BodyTypeHTML,
			Content:     htmlBody,
		},
		ToRecipients: []models.Recipient{
			{EmailAddress: models.EmailAddress{Address: recipient}},
		},
		Attachments: attachments,
	}
}

// ReferencesContentID reports whether body refers to the inline
// attachment contentID via a cid: URL.
func ReferencesContentID(body, contentID string) bool {
	return strings.Contains(strings.ToLower(body), "cid:"+strings.ToLower(contentID))
}
