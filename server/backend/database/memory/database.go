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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"sort"
	gotime "time"

	"github.com/hashicorp/go-memdb"
	"github.com/rs/xid"

	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/backend/database"
)

// DB is an in-memory database for testing or single-node deployments.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// presenceRecord wraps a presence record with its compound key for storage.
type presenceRecord struct {
	ID            string
	DocID         string
	ParticipantID string
	Record        presence.Record
}

// inviteRecord wraps InviteInfo with a compound key for storage.
type inviteRecord struct {
	ID string
	*database.InviteInfo
}

// inboxRecord wraps InboxInfo with a compound key for storage.
type inboxRecord struct {
	ID string
	*database.InboxInfo
}

// EnsureDocument finds the document or creates it with an empty content log.
func (d *DB) EnsureDocument(_ context.Context, docID, title, owner string) (*database.DocInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", docID)
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", docID, err)
	}
	if raw != nil {
		return raw.(*database.DocInfo).DeepCopy(), nil
	}

	now := gotime.Now().UTC()
	info := &database.DocInfo{
		ID:        docID,
		Title:     title,
		Owner:     owner,
		Ops:       []byte(`{"ops":[]}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := txn.Insert(tblDocuments, info); err != nil {
		return nil, fmt.Errorf("insert document of %s: %w", docID, err)
	}

	txn.Commit()
	return info.DeepCopy(), nil
}

// FindDocInfo finds the document by id.
func (d *DB) FindDocInfo(_ context.Context, docID string) (*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", docID)
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", docID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
	}

	// NOTE: objects from go-memdb are shared; hand out copies so callers
	// cannot mutate stored state in place.
	return raw.(*database.DocInfo).DeepCopy(), nil
}

// UpdateDocContent merge-writes the content log of the document.
func (d *DB) UpdateDocContent(_ context.Context, docID string, ops []byte) (*database.DocInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", docID)
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", docID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
	}

	info := raw.(*database.DocInfo).DeepCopy()
	info.Ops = append([]byte(nil), ops...)
	info.UpdatedAt = gotime.Now().UTC()

	if err := txn.Insert(tblDocuments, info); err != nil {
		return nil, fmt.Errorf("update document of %s: %w", docID, err)
	}

	txn.Commit()
	return info.DeepCopy(), nil
}

// UpsertPresence writes the presence record of the given participant.
func (d *DB) UpsertPresence(
	_ context.Context,
	docID, participantID string,
	record presence.Record,
) (presence.Record, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	record.UpdatedAt = gotime.Now().UTC()
	rec := &presenceRecord{
		ID:            docID + "/" + participantID,
		DocID:         docID,
		ParticipantID: participantID,
		Record:        record,
	}
	if err := txn.Insert(tblPresences, rec); err != nil {
		return presence.Record{}, fmt.Errorf("upsert presence of %s: %w", rec.ID, err)
	}

	txn.Commit()
	return record, nil
}

// DeletePresence removes the presence record of the given participant.
func (d *DB) DeletePresence(_ context.Context, docID, participantID string) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblPresences, "id", docID+"/"+participantID)
	if err != nil {
		return fmt.Errorf("find presence of %s/%s: %w", docID, participantID, err)
	}
	if raw == nil {
		return nil
	}

	if err := txn.Delete(tblPresences, raw); err != nil {
		return fmt.Errorf("delete presence of %s/%s: %w", docID, participantID, err)
	}

	txn.Commit()
	return nil
}

// FindPresences returns all presence records of the document.
func (d *DB) FindPresences(_ context.Context, docID string) ([]database.PresenceInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblPresences, "doc_id", docID)
	if err != nil {
		return nil, fmt.Errorf("find presences of %s: %w", docID, err)
	}

	var infos []database.PresenceInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*presenceRecord)
		infos = append(infos, database.PresenceInfo{
			DocID:         rec.DocID,
			ParticipantID: rec.ParticipantID,
			Record:        rec.Record,
		})
	}
	return infos, nil
}

// CreateVersionInfo appends an immutable version record.
func (d *DB) CreateVersionInfo(
	_ context.Context,
	docID, message, blobKey string,
) (*database.VersionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info := &database.VersionInfo{
		ID:        xid.New().String(),
		DocID:     docID,
		Message:   message,
		BlobKey:   blobKey,
		CreatedAt: gotime.Now().UTC(),
	}
	if err := txn.Insert(tblVersions, info); err != nil {
		return nil, fmt.Errorf("insert version of %s: %w", docID, err)
	}

	txn.Commit()
	copied := *info
	return &copied, nil
}

// FindVersionInfos returns all version records of the document ordered by
// creation timestamp descending.
func (d *DB) FindVersionInfos(_ context.Context, docID string) ([]database.VersionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblVersions, "doc_id", docID)
	if err != nil {
		return nil, fmt.Errorf("find versions of %s: %w", docID, err)
	}

	var infos []database.VersionInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		infos = append(infos, *raw.(*database.VersionInfo))
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// CreateInviteInfo creates an invite of the given invitee for the document.
func (d *DB) CreateInviteInfo(_ context.Context, info database.InviteInfo) (*database.InviteInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	id := info.DocID + "/" + info.InviteeKey
	raw, err := txn.First(tblInvites, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find invite of %s: %w", id, err)
	}
	if raw != nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrInviteAlreadyExists)
	}

	info.Status = database.InviteStatusPending
	info.CreatedAt = gotime.Now().UTC()
	rec := &inviteRecord{ID: id, InviteInfo: &info}
	if err := txn.Insert(tblInvites, rec); err != nil {
		return nil, fmt.Errorf("insert invite of %s: %w", id, err)
	}

	txn.Commit()
	copied := info
	return &copied, nil
}

// FindInviteInfo finds the invite of the given invitee for the document.
func (d *DB) FindInviteInfo(_ context.Context, docID, inviteeKey string) (*database.InviteInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblInvites, "id", docID+"/"+inviteeKey)
	if err != nil {
		return nil, fmt.Errorf("find invite of %s/%s: %w", docID, inviteeKey, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s/%s: %w", docID, inviteeKey, database.ErrInviteNotFound)
	}

	copied := *raw.(*inviteRecord).InviteInfo
	return &copied, nil
}

// FindInviteInfos returns all pending invites of the document.
func (d *DB) FindInviteInfos(_ context.Context, docID string) ([]database.InviteInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblInvites, "doc_id", docID)
	if err != nil {
		return nil, fmt.Errorf("find invites of %s: %w", docID, err)
	}

	var infos []database.InviteInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		info := *raw.(*inviteRecord).InviteInfo
		if info.Status != database.InviteStatusPending {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// UpdateInviteStatus updates the status of an invite.
func (d *DB) UpdateInviteStatus(
	_ context.Context,
	docID, inviteeKey string,
	status database.InviteStatus,
) (*database.InviteInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	id := docID + "/" + inviteeKey
	raw, err := txn.First(tblInvites, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find invite of %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrInviteNotFound)
	}

	info := *raw.(*inviteRecord).InviteInfo
	info.Status = status
	rec := &inviteRecord{ID: id, InviteInfo: &info}
	if err := txn.Insert(tblInvites, rec); err != nil {
		return nil, fmt.Errorf("update invite of %s: %w", id, err)
	}

	txn.Commit()
	copied := info
	return &copied, nil
}

// UpsertInboxInfo merge-writes the inbox entry of the given user.
func (d *DB) UpsertInboxInfo(_ context.Context, info database.InboxInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info.CreatedAt = gotime.Now().UTC()
	rec := &inboxRecord{ID: info.UserKey + "/" + info.DocID, InboxInfo: &info}
	if err := txn.Insert(tblInboxes, rec); err != nil {
		return fmt.Errorf("upsert inbox of %s: %w", rec.ID, err)
	}

	txn.Commit()
	return nil
}

// FindInboxInfos returns all inbox entries of the given user.
func (d *DB) FindInboxInfos(_ context.Context, userKey string) ([]database.InboxInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblInboxes, "user_key", userKey)
	if err != nil {
		return nil, fmt.Errorf("find inboxes of %s: %w", userKey, err)
	}

	var infos []database.InboxInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		infos = append(infos, *raw.(*inboxRecord).InboxInfo)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}
