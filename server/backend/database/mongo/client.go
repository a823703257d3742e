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

// Package mongo implements the database interface using MongoDB.
package mongo

import (
	"context"
	goerrors "errors"
	"fmt"
	gotime "time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/backend/database"
)

const (
	colDocuments = "documents"
	colPresences = "presences"
	colVersions  = "versions"
	colInvites   = "invites"
	colInboxes   = "inboxes"
)

// Client is a client that connects to Mongo DB and reads or saves DocuLink data.
type Client struct {
	config *Config
	client *mongo.Client
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.ConnectionURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.Database)); err != nil {
		return nil, err
	}

	return &Client{
		config: conf,
		client: client,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}
	return nil
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(name)
}

// EnsureDocument finds the document or creates it with an empty content log.
func (c *Client) EnsureDocument(ctx context.Context, docID, title, owner string) (*database.DocInfo, error) {
	now := gotime.Now().UTC()

	res := c.collection(colDocuments).FindOneAndUpdate(ctx, bson.M{
		"_id": docID,
	}, bson.M{
		"$setOnInsert": bson.M{
			"title":      title,
			"owner":      owner,
			"ops":        []byte(`{"ops":[]}`),
			"created_at": now,
			"updated_at": now,
		},
	}, options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))

	info := &database.DocInfo{}
	if err := res.Decode(info); err != nil {
		return nil, fmt.Errorf("ensure document of %s: %w", docID, err)
	}
	return info, nil
}

// FindDocInfo finds the document by id.
func (c *Client) FindDocInfo(ctx context.Context, docID string) (*database.DocInfo, error) {
	res := c.collection(colDocuments).FindOne(ctx, bson.M{"_id": docID})

	info := &database.DocInfo{}
	if err := res.Decode(info); err != nil {
		if goerrors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("find document of %s: %w", docID, err)
	}
	return info, nil
}

// UpdateDocContent merge-writes the content log of the document.
func (c *Client) UpdateDocContent(ctx context.Context, docID string, ops []byte) (*database.DocInfo, error) {
	res := c.collection(colDocuments).FindOneAndUpdate(ctx, bson.M{
		"_id": docID,
	}, bson.M{
		"$set": bson.M{
			"ops":        ops,
			"updated_at": gotime.Now().UTC(),
		},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After))

	info := &database.DocInfo{}
	if err := res.Decode(info); err != nil {
		if goerrors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("update document of %s: %w", docID, err)
	}
	return info, nil
}

// UpsertPresence writes the presence record of the given participant.
func (c *Client) UpsertPresence(
	ctx context.Context,
	docID, participantID string,
	record presence.Record,
) (presence.Record, error) {
	record.UpdatedAt = gotime.Now().UTC()

	_, err := c.collection(colPresences).UpdateOne(ctx, bson.M{
		"doc_id":         docID,
		"participant_id": participantID,
	}, bson.M{
		"$set": bson.M{"record": record},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return presence.Record{}, fmt.Errorf("upsert presence of %s/%s: %w", docID, participantID, err)
	}
	return record, nil
}

// DeletePresence removes the presence record of the given participant.
func (c *Client) DeletePresence(ctx context.Context, docID, participantID string) error {
	if _, err := c.collection(colPresences).DeleteOne(ctx, bson.M{
		"doc_id":         docID,
		"participant_id": participantID,
	}); err != nil {
		return fmt.Errorf("delete presence of %s/%s: %w", docID, participantID, err)
	}
	return nil
}

// FindPresences returns all presence records of the document.
func (c *Client) FindPresences(ctx context.Context, docID string) ([]database.PresenceInfo, error) {
	cursor, err := c.collection(colPresences).Find(ctx, bson.M{"doc_id": docID})
	if err != nil {
		return nil, fmt.Errorf("find presences of %s: %w", docID, err)
	}

	var infos []database.PresenceInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode presences of %s: %w", docID, err)
	}
	return infos, nil
}

// CreateVersionInfo appends an immutable version record.
func (c *Client) CreateVersionInfo(
	ctx context.Context,
	docID, message, blobKey string,
) (*database.VersionInfo, error) {
	info := &database.VersionInfo{
		ID:        xid.New().String(),
		DocID:     docID,
		Message:   message,
		BlobKey:   blobKey,
		CreatedAt: gotime.Now().UTC(),
	}

	if _, err := c.collection(colVersions).InsertOne(ctx, info); err != nil {
		return nil, fmt.Errorf("insert version of %s: %w", docID, err)
	}
	return info, nil
}

// FindVersionInfos returns all version records of the document ordered by
// creation timestamp descending.
func (c *Client) FindVersionInfos(ctx context.Context, docID string) ([]database.VersionInfo, error) {
	cursor, err := c.collection(colVersions).Find(
		ctx,
		bson.M{"doc_id": docID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find versions of %s: %w", docID, err)
	}

	var infos []database.VersionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode versions of %s: %w", docID, err)
	}
	return infos, nil
}

// CreateInviteInfo creates an invite of the given invitee for the document.
func (c *Client) CreateInviteInfo(ctx context.Context, info database.InviteInfo) (*database.InviteInfo, error) {
	info.Status = database.InviteStatusPending
	info.CreatedAt = gotime.Now().UTC()

	if _, err := c.collection(colInvites).InsertOne(ctx, bson.M{
		"_id":         info.DocID + "/" + info.InviteeKey,
		"doc_id":      info.DocID,
		"invitee_key": info.InviteeKey,
		"email":       info.Email,
		"invited_by":  info.InvitedBy,
		"status":      info.Status,
		"created_at":  info.CreatedAt,
		"expires_at":  info.ExpiresAt,
	}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s/%s: %w", info.DocID, info.InviteeKey, database.ErrInviteAlreadyExists)
		}
		return nil, fmt.Errorf("insert invite of %s/%s: %w", info.DocID, info.InviteeKey, err)
	}
	return &info, nil
}

// FindInviteInfo finds the invite of the given invitee for the document.
func (c *Client) FindInviteInfo(ctx context.Context, docID, inviteeKey string) (*database.InviteInfo, error) {
	res := c.collection(colInvites).FindOne(ctx, bson.M{
		"doc_id":      docID,
		"invitee_key": inviteeKey,
	})

	info := &database.InviteInfo{}
	if err := res.Decode(info); err != nil {
		if goerrors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", docID, inviteeKey, database.ErrInviteNotFound)
		}
		return nil, fmt.Errorf("find invite of %s/%s: %w", docID, inviteeKey, err)
	}
	return info, nil
}

// FindInviteInfos returns all pending invites of the document.
func (c *Client) FindInviteInfos(ctx context.Context, docID string) ([]database.InviteInfo, error) {
	cursor, err := c.collection(colInvites).Find(
		ctx,
		bson.M{"doc_id": docID, "status": database.InviteStatusPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find invites of %s: %w", docID, err)
	}

	var infos []database.InviteInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode invites of %s: %w", docID, err)
	}
	return infos, nil
}

// UpdateInviteStatus updates the status of an invite.
func (c *Client) UpdateInviteStatus(
	ctx context.Context,
	docID, inviteeKey string,
	status database.InviteStatus,
) (*database.InviteInfo, error) {
	res := c.collection(colInvites).FindOneAndUpdate(ctx, bson.M{
		"doc_id":      docID,
		"invitee_key": inviteeKey,
	}, bson.M{
		"$set": bson.M{"status": status},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After))

	info := &database.InviteInfo{}
	if err := res.Decode(info); err != nil {
		if goerrors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", docID, inviteeKey, database.ErrInviteNotFound)
		}
		return nil, fmt.Errorf("update invite of %s/%s: %w", docID, inviteeKey, err)
	}
	return info, nil
}

// UpsertInboxInfo merge-writes the inbox entry of the given user.
func (c *Client) UpsertInboxInfo(ctx context.Context, info database.InboxInfo) error {
	if _, err := c.collection(colInboxes).UpdateOne(ctx, bson.M{
		"user_key": info.UserKey,
		"doc_id":   info.DocID,
	}, bson.M{
		"$set": bson.M{
			"doc_title":  info.DocTitle,
			"invited_by": info.InvitedBy,
			"created_at": gotime.Now().UTC(),
		},
	}, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert inbox of %s/%s: %w", info.UserKey, info.DocID, err)
	}
	return nil
}

// FindInboxInfos returns all inbox entries of the given user.
func (c *Client) FindInboxInfos(ctx context.Context, userKey string) ([]database.InboxInfo, error) {
	cursor, err := c.collection(colInboxes).Find(
		ctx,
		bson.M{"user_key": userKey},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find inboxes of %s: %w", userKey, err)
	}

	var infos []database.InboxInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode inboxes of %s: %w", userKey, err)
	}
	return infos, nil
}
