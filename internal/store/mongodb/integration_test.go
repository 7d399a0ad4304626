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

//go:build integration
// +build integration

package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orgdir/orgdir/internal/directory"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := New(ctx, Config{
		URI:            uri,
		Database:       "orgdir_test_" + uuid.NewString()[:8],
		MaxPoolSize:    5,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.Database().Drop(ctx)
		_ = db.Close(ctx)
	})

	return db
}

// TestPurpose: Validates that the unique slug index rejects a second organization record with the same slug.
// Scope: Database Integration Test
// Expected: The first insert succeeds; the second insert with an identical slug returns ErrOrgAlreadyExists.
// Test Case ID: STO-01
// Metadata:
//   - Category: Directory
//   - Priority: High
//   - Tags: uniqueness, concurrency
func TestOrganizationRepository_UniqueSlug(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	repo := NewOrganizationRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("failed to ensure indexes: %v", err)
	}

	now := time.Now().UTC()
	adminID := primitive.NewObjectID().Hex()
	first := &directory.Organization{
		Name:           "Wedding Co",
		Slug:           "wedding_co",
		CollectionName: "org_wedding_co",
		AdminID:        adminID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("failed to create first organization: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected store-assigned ID on create")
	}

	second := &directory.Organization{
		Name:           "WEDDING CO",
		Slug:           "wedding_co",
		CollectionName: "org_wedding_co",
		AdminID:        primitive.NewObjectID().Hex(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.Create(ctx, second); err != directory.ErrOrgAlreadyExists {
		t.Errorf("expected ErrOrgAlreadyExists, got %v", err)
	}
}

// TestPurpose: Validates the collection migration path used by organization rename.
// Scope: Database Integration Test
// Expected: All documents land in the new collection with fresh identity, the old collection is gone, and the reported count matches.
// Test Case ID: STO-02
// Metadata:
//   - Category: Directory
//   - Priority: High
//   - Tags: migration, lifecycle
func TestCollectionManager_Migrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	mgr := NewCollectionManager(db)

	if err := mgr.Provision(ctx, "org_old"); err != nil {
		t.Fatalf("failed to provision collection: %v", err)
	}
	if err := mgr.Provision(ctx, "org_old"); err != directory.ErrCollectionExists {
		t.Errorf("expected ErrCollectionExists on repeat provision, got %v", err)
	}

	coll := db.Database().Collection("org_old")
	for i := 0; i < 3; i++ {
		if _, err := coll.InsertOne(ctx, map[string]any{"n": i}); err != nil {
			t.Fatalf("failed to seed document: %v", err)
		}
	}

	moved, err := mgr.Migrate(ctx, "org_old", "org_new")
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	if moved != 3 {
		t.Errorf("expected 3 documents moved, got %d", moved)
	}

	names, err := mgr.List(ctx)
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	var hasOld, hasNew bool
	for _, n := range names {
		if n == "org_old" {
			hasOld = true
		}
		if n == "org_new" {
			hasNew = true
		}
	}
	if hasOld {
		t.Error("source collection still present after migration")
	}
	if !hasNew {
		t.Error("destination collection missing after migration")
	}

	count, err := db.Database().Collection("org_new").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 documents in destination, got %d", count)
	}

	// Dropping a collection that never existed is a clean no-op.
	if err := mgr.Drop(ctx, "org_never_was"); err != nil {
		t.Errorf("expected idempotent drop, got %v", err)
	}
}
