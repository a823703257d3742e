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

// Package invites manages per-document collaboration invites and the
// invitees' inboxes.
package invites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doculink-team/doculink/internal/validation"
	"github.com/doculink-team/doculink/pkg/errors"
	"github.com/doculink-team/doculink/server/backend/database"
	"github.com/doculink-team/doculink/server/logging"
)

const (
	// DefaultExpiry is how long an invite stays acceptable.
	DefaultExpiry = 7 * 24 * time.Hour
)

var (
	// ErrInviteExpired occurs when an expired invite is accepted.
	ErrInviteExpired = errors.FailedPrecond("invite has expired").WithCode("ErrInviteExpired")

	// ErrInvalidInvitee occurs when an invite has neither a user id nor an email.
	ErrInvalidInvitee = errors.InvalidArgument(
		"invite needs a user id or an email",
	).WithCode("ErrInvalidInvitee")

	// ErrInvalidEmail occurs when an invite carries a malformed email.
	ErrInvalidEmail = errors.InvalidArgument("invalid email").WithCode("ErrInvalidEmail")
)

// Service manages invites on top of the database.
type Service struct {
	db     database.Database
	expiry time.Duration
	logger logging.Logger
}

// NewService creates an instance of Service.
func NewService(db database.Database) *Service {
	return &Service{
		db:     db,
		expiry: DefaultExpiry,
		logger: logging.New("invites"),
	}
}

// InviteeKey returns the key an invite is filed under: the invitee's
// user id when known, otherwise their email.
func InviteeKey(userID, email string) string {
	if userID != "" {
		return userID
	}
	return strings.ToLower(strings.TrimSpace(email))
}

// Create files an invite for the given invitee. A duplicate invite for
// the same document and invitee is rejected. The invitee's inbox entry
// is written best effort: its failure is logged and does not fail the
// invite.
func (s *Service) Create(
	ctx context.Context,
	docID, docTitle, userID, email, invitedBy string,
) (*database.InviteInfo, error) {
	email = strings.TrimSpace(email)
	key := InviteeKey(userID, email)
	if key == "" {
		return nil, ErrInvalidInvitee
	}
	if email != "" {
		if err := validation.ValidateValue(email, "email"); err != nil {
			return nil, fmt.Errorf("%s: %w", email, ErrInvalidEmail)
		}
	}

	now := time.Now()
	info, err := s.db.CreateInviteInfo(ctx, database.InviteInfo{
		DocID:      docID,
		InviteeKey: key,
		Email:      email,
		InvitedBy:  invitedBy,
		Status:     database.InviteStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.expiry),
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.UpsertInboxInfo(ctx, database.InboxInfo{
		UserKey:   key,
		DocID:     docID,
		DocTitle:  docTitle,
		InvitedBy: invitedBy,
		CreatedAt: now,
	}); err != nil {
		s.logger.Warnf("inbox fan-out for %s/%s: %v", docID, key, err)
	}

	return info, nil
}

// Accept marks the invite of the given invitee as accepted. Accepting
// an expired invite fails and leaves the invite pending.
func (s *Service) Accept(ctx context.Context, docID, inviteeKey string) (*database.InviteInfo, error) {
	info, err := s.db.FindInviteInfo(ctx, docID, inviteeKey)
	if err != nil {
		return nil, err
	}

	if info.IsExpired(time.Now()) {
		return nil, ErrInviteExpired
	}

	return s.db.UpdateInviteStatus(ctx, docID, inviteeKey, database.InviteStatusAccepted)
}

// ListPending returns the pending invites of the document.
func (s *Service) ListPending(ctx context.Context, docID string) ([]database.InviteInfo, error) {
	return s.db.FindInviteInfos(ctx, docID)
}

// Inbox returns the inbox entries of the given user.
func (s *Service) Inbox(ctx context.Context, userKey string) ([]database.InboxInfo, error) {
	return s.db.FindInboxInfos(ctx, userKey)
}
