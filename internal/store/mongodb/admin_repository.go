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
	"fmt"
	"time"

	"github.com/orgdir/orgdir/internal/identity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type adminDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"password_hash"`
	OrganizationID primitive.ObjectID `bson:"organization_id,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *adminDoc) toDomain() *identity.Admin {
	admin := &identity.Admin{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if !d.OrganizationID.IsZero() {
		admin.OrganizationID = d.OrganizationID.Hex()
	}
	return admin
}

// AdminRepository implements identity.Repository
type AdminRepository struct {
	coll *mongo.Collection
}

// NewAdminRepository creates a new administrator repository
func NewAdminRepository(db *DB) *AdminRepository {
	return &AdminRepository{coll: db.Database().Collection(collAdmins)}
}

// Create persists a new, unlinked administrator and assigns its ID. No
// uniqueness constraint on email: the directory only guarantees
// organization-name uniqueness.
func (r *AdminRepository) Create(ctx context.Context, admin *identity.Admin) error {
	now := time.Now()
	doc := adminDoc{
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert administrator: %w", err)
	}

	admin.ID = res.InsertedID.(primitive.ObjectID).Hex()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	return nil
}

// GetByID retrieves an administrator by ID
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*identity.Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, identity.ErrAdminNotFound
	}

	var doc adminDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, identity.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get administrator: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByEmail retrieves an administrator by login email. With duplicate
// emails the first match wins; see the directory design notes.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*identity.Admin, error) {
	var doc adminDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, identity.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get administrator by email: %w", err)
	}
	return doc.toDomain(), nil
}

// LinkOrganization sets the back-reference to the owning organization
func (r *AdminRepository) LinkOrganization(ctx context.Context, adminID, orgID string) error {
	adminOID, err := primitive.ObjectIDFromHex(adminID)
	if err != nil {
		return identity.ErrAdminNotFound
	}
	orgOID, err := primitive.ObjectIDFromHex(orgID)
	if err != nil {
		return fmt.Errorf("invalid organization id %q", orgID)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": adminOID},
		bson.M{"$set": bson.M{"organization_id": orgOID, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to link administrator: %w", err)
	}
	if res.MatchedCount == 0 {
		return identity.ErrAdminNotFound
	}
	return nil
}

// UpdateCredentials applies a partial email/password-hash change
func (r *AdminRepository) UpdateCredentials(ctx context.Context, adminID string, update identity.CredentialUpdate) error {
	oid, err := primitive.ObjectIDFromHex(adminID)
	if err != nil {
		return identity.ErrAdminNotFound
	}

	set := bson.M{"updated_at": time.Now()}
	if update.Email != "" {
		set["email"] = update.Email
	}
	if update.PasswordHash != "" {
		set["password_hash"] = update.PasswordHash
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	if res.MatchedCount == 0 {
		return identity.ErrAdminNotFound
	}
	return nil
}

// Delete removes an administrator record. Deleting an absent record is not
// an error, so organization deletion stays retryable.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete administrator: %w", err)
	}
	return nil
}
