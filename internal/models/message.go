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

// Package models defines the Graph API payloads shared across the send flow.
package models

import "time"

const (
	// BodyTypeHTML marks an item body as HTML.
	BodyTypeHTML = "HTML"

	// FileAttachmentType is the OData discriminator Graph requires on file
	// attachments.
	FileAttachmentType = "#microsoft.graph.fileAttachment"
)

// User is the subset of the /me profile the flow needs.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Address returns the mailbox to send to. Accounts without a mail value
// (some personal and guest accounts) fall back to the UPN.
func (u *User) Address() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// EmailAddress represents a sender or recipient with an address and optional name.
type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Recipient wraps an EmailAddress the way Graph expects.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ItemBody represents the message body content.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// FileAttachment is an attachment carried inline in the sendMail payload.
// ContentBytes is base64-encoded by encoding/json.
//
// For an inline image, Name and ContentID must both equal the cid the HTML
// body references.
type FileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentID    string `json:"contentId,omitempty"`
	IsInline     bool   `json:"isInline"`
	ContentBytes []byte `json:"contentBytes"`
}

// Message is an outgoing message. It is fully built before being handed
// to the send step and not mutated afterwards.
type Message struct {
	Subject      string           `json:"subject"`
	Body         ItemBody         `json:"body"`
	ToRecipients []Recipient      `json:"toRecipients"`
	Attachments  []FileAttachment `json:"attachments,omitempty"`
}

// SendMailRequest is the POST /me/sendMail request body.
type SendMailRequest struct {
	Message         *Message `json:"message"`
	SaveToSentItems bool     `json:"saveToSentItems"`
}

// SendRecord is the audit entry written after Graph accepted a message.
type SendRecord struct {
	ID              string    `json:"id"`
	Recipient       string    `json:"recipient"`
	Subject         string    `json:"subject"`
	ContentID       string    `json:"content_id"`
	BodyBytes       int       `json:"body_bytes"`
	Attachments     int       `json:"attachments"`
	SaveToSentItems bool      `json:"save_to_sent_items"`
	SentAt          time.Time `json:"sent_at"`
}
