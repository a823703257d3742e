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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// collectionInfos describes the indexes of each collection.
var collectionInfos = []collectionInfo{
	{
		name: colPresences,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: 1},
				{Key: "participant_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: colVersions,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		}},
	},
	{
		name: colInvites,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: 1},
				{Key: "invitee_key", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: colInboxes,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "user_key", Value: 1},
				{Key: "doc_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		if len(info.indexes) == 0 {
			continue
		}

		if _, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes); err != nil {
			return fmt.Errorf("create indexes of %s: %w", info.name, err)
		}
	}
	return nil
}
