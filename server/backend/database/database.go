/*
 * Copyright 2025 The DocuLink Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the database interface for DocuLink. A database
// holds the live document contents, the ephemeral presence records, the
// append-only version history and document invites.
package database

import (
	"context"
	"time"

	"github.com/doculink-team/doculink/pkg/errors"
	"github.com/doculink-team/doculink/pkg/presence"
)

var (
	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrVersionNotFound is returned when the version record could not be found.
	ErrVersionNotFound = errors.NotFound("version not found").WithCode("ErrVersionNotFound")

	// ErrPresenceNotFound is returned when the presence record could not be found.
	ErrPresenceNotFound = errors.NotFound("presence not found").WithCode("ErrPresenceNotFound")

	// ErrInviteNotFound is returned when the invite could not be found.
	ErrInviteNotFound = errors.NotFound("invite not found").WithCode("ErrInviteNotFound")

	// ErrInviteAlreadyExists is returned when the invitee already has a pending invite.
	ErrInviteAlreadyExists = errors.AlreadyExists("user already invited").WithCode("ErrInviteAlreadyExists")
)

// InviteStatus represents the lifecycle state of an invite.
type InviteStatus string

const (
	// InviteStatusPending means the invite has not been accepted yet.
	InviteStatusPending InviteStatus = "pending"

	// InviteStatusAccepted means the invitee joined the document.
	InviteStatusAccepted InviteStatus = "accepted"
)

// DocInfo is the live document record. Ops is the JSON-encoded content log;
// it is replaced wholesale on every persisted write and UpdatedAt carries
// the server-assigned timestamp of that write.
type DocInfo struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Owner     string    `json:"owner" bson:"owner"`
	Ops       []byte    `json:"ops" bson:"ops"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DeepCopy creates a deep copy of this DocInfo.
func (i *DocInfo) DeepCopy() *DocInfo {
	if i == nil {
		return nil
	}

	copied := *i
	copied.Ops = append([]byte(nil), i.Ops...)
	return &copied
}

// PresenceInfo is a stored presence record of a (document, participant) pair.
type PresenceInfo struct {
	DocID         string          `json:"doc_id" bson:"doc_id"`
	ParticipantID string          `json:"participant_id" bson:"participant_id"`
	Record        presence.Record `json:"record" bson:"record"`
}

// VersionInfo is an immutable snapshot record. Records are append-only and
// never mutated or deleted by normal flow.
type VersionInfo struct {
	ID        string    `json:"id" bson:"_id"`
	DocID     string    `json:"doc_id" bson:"doc_id"`
	Message   string    `json:"message" bson:"message"`
	BlobKey   string    `json:"blob_key" bson:"blob_key"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// InviteInfo is a pending or accepted invite of a user to a document. The
// invitee is keyed by resolved user id when the identity provider knows the
// email, by the email itself otherwise.
type InviteInfo struct {
	DocID      string       `json:"doc_id" bson:"doc_id"`
	InviteeKey string       `json:"invitee_key" bson:"invitee_key"`
	Email      string       `json:"email" bson:"email"`
	InvitedBy  string       `json:"invited_by" bson:"invited_by"`
	Status     InviteStatus `json:"status" bson:"status"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at" bson:"expires_at"`
}

// IsExpired reports whether the invite has expired at the given instant.
func (i *InviteInfo) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now)
}

// InboxInfo is the per-user inbox entry fanned out when an invite is
// created. Inbox writes are best-effort; a missing entry never invalidates
// the invite itself.
type InboxInfo struct {
	UserKey   string    `json:"user_key" bson:"user_key"`
	DocID     string    `json:"doc_id" bson:"doc_id"`
	DocTitle  string    `json:"doc_title" bson:"doc_title"`
	InvitedBy string    `json:"invited_by" bson:"invited_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Database is the interface all storage backends implement.
type Database interface {
	// Close closes all resources of this database.
	Close() error

	// EnsureDocument finds the document or creates it with an empty content
	// log when it does not exist yet.
	EnsureDocument(ctx context.Context, docID, title, owner string) (*DocInfo, error)

	// FindDocInfo finds the document by id.
	FindDocInfo(ctx context.Context, docID string) (*DocInfo, error)

	// UpdateDocContent merge-writes the content log of the document and
	// assigns the server timestamp of the write. The document must exist.
	UpdateDocContent(ctx context.Context, docID string, ops []byte) (*DocInfo, error)

	// UpsertPresence writes the presence record of the given participant
	// with a fresh server timestamp and returns the stored record.
	UpsertPresence(ctx context.Context, docID, participantID string, record presence.Record) (presence.Record, error)

	// DeletePresence removes the presence record of the given participant.
	// Removing an absent record is not an error.
	DeletePresence(ctx context.Context, docID, participantID string) error

	// FindPresences returns all presence records of the document.
	FindPresences(ctx context.Context, docID string) ([]PresenceInfo, error)

	// CreateVersionInfo appends an immutable version record.
	CreateVersionInfo(ctx context.Context, docID, message, blobKey string) (*VersionInfo, error)

	// FindVersionInfos returns all version records of the document ordered
	// by creation timestamp descending.
	FindVersionInfos(ctx context.Context, docID string) ([]VersionInfo, error)

	// CreateInviteInfo creates an invite. It returns ErrInviteAlreadyExists
	// when the invitee already has one for the document.
	CreateInviteInfo(ctx context.Context, info InviteInfo) (*InviteInfo, error)

	// FindInviteInfo finds the invite of the given invitee for the document.
	FindInviteInfo(ctx context.Context, docID, inviteeKey string) (*InviteInfo, error)

	// FindInviteInfos returns all pending invites of the document.
	FindInviteInfos(ctx context.Context, docID string) ([]InviteInfo, error)

	// UpdateInviteStatus updates the status of an invite.
	UpdateInviteStatus(ctx context.Context, docID, inviteeKey string, status InviteStatus) (*InviteInfo, error)

	// UpsertInboxInfo merge-writes the inbox entry of the given user.
	UpsertInboxInfo(ctx context.Context, info InboxInfo) error

	// FindInboxInfos returns all inbox entries of the given user.
	FindInboxInfos(ctx context.Context, userKey string) ([]InboxInfo, error)
}
