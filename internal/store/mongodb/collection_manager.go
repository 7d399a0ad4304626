// Copyright 2026 The OrgDir Authors
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

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orgdir/orgdir/internal/directory"
	"github.com/orgdir/orgdir/internal/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// namespaceExists is the server error code for creating a collection that
// already exists.
const namespaceExists = 48

// CollectionManager implements directory.CollectionManager on MongoDB.
//
// OPERATOR NOTE: Migrate spans two collections and runs without any
// cross-collection transaction. A process crash after some documents have
// been copied but before the source collection is dropped leaves BOTH
// collections populated; the organization record still names the old
// collection, so no data is lost, but re-invoking the rename against the
// same pair would duplicate the already-copied documents. Inspect and
// reconcile collection state (cmd/sweep lists orphans) before retrying.
// This is the widest consistency window in the system.
type CollectionManager struct {
	db *mongo.Database
}

// NewCollectionManager creates a new collection lifecycle manager
func NewCollectionManager(db *DB) *CollectionManager {
	return &CollectionManager{db: db.Database()}
}

// Provision creates an empty named collection. Slug uniqueness should make
// a pre-existing collection impossible, but it is still checked.
func (m *CollectionManager) Provision(ctx context.Context, name string) error {
	if err := m.db.CreateCollection(ctx, name); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExists {
			return directory.ErrCollectionExists
		}
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// Migrate streams every document from oldName into newName and then drops
// oldName. Each document is inserted without its original _id: the physical
// key is an artifact of the old collection, not semantic state, so the new
// collection assigns fresh identity. Returns the number of documents moved.
func (m *CollectionManager) Migrate(ctx context.Context, oldName, newName string) (int64, error) {
	src := m.db.Collection(oldName)
	dst := m.db.Collection(newName)

	cur, err := src.Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to read collection %s: %w", oldName, err)
	}
	defer cur.Close(ctx)

	var moved int64
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return moved, fmt.Errorf("failed to decode document in %s: %w", oldName, err)
		}
		delete(doc, "_id")
		if _, err := dst.InsertOne(ctx, doc); err != nil {
			return moved, fmt.Errorf("failed to copy document into %s: %w", newName, err)
		}
		moved++
	}
	if err := cur.Err(); err != nil {
		return moved, fmt.Errorf("failed to iterate collection %s: %w", oldName, err)
	}

	if err := src.Drop(ctx); err != nil {
		return moved, fmt.Errorf("failed to drop collection %s after copy: %w", oldName, err)
	}

	slog.InfoContext(ctx, "tenant collection migrated",
		logger.Component("collection_manager"),
		logger.Collection(newName),
		logger.DocumentCount(moved),
	)

	return moved, nil
}

// Drop removes the named collection. Dropping a missing collection is a
// no-op in MongoDB, which is exactly the idempotency delete needs.
func (m *CollectionManager) Drop(ctx context.Context, name string) error {
	if err := m.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	return nil
}

// List returns the names of all collections in the database
func (m *CollectionManager) List(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}
