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

	"github.com/orgdir/orgdir/internal/directory"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type organizationDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Slug           string             `bson:"slug"`
	CollectionName string             `bson:"collection_name"`
	AdminID        primitive.ObjectID `bson:"admin_id"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *organizationDoc) toDomain() *directory.Organization {
	return &directory.Organization{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Slug:           d.Slug,
		CollectionName: d.CollectionName,
		AdminID:        d.AdminID.Hex(),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// OrganizationRepository implements directory.Repository
type OrganizationRepository struct {
	coll *mongo.Collection
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{coll: db.Database().Collection(collOrganizations)}
}

// EnsureIndexes creates the unique slug index. The index is what closes the
// concurrent-create race: two inserts with the same slug cannot both
// succeed, whatever the services observed beforehand. Called at startup.
func (r *OrganizationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_slug"),
	})
	if err != nil {
		return fmt.Errorf("failed to ensure slug index: %w", err)
	}
	return nil
}

// Create persists a new organization and assigns its ID. A duplicate slug is
// reported as directory.ErrOrgAlreadyExists.
func (r *OrganizationRepository) Create(ctx context.Context, org *directory.Organization) error {
	adminOID, err := primitive.ObjectIDFromHex(org.AdminID)
	if err != nil {
		return fmt.Errorf("invalid administrator id %q", org.AdminID)
	}

	doc := organizationDoc{
		Name:           org.Name,
		Slug:           org.Slug,
		CollectionName: org.CollectionName,
		AdminID:        adminOID,
		CreatedAt:      org.CreatedAt,
		UpdatedAt:      org.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return directory.ErrOrgAlreadyExists
		}
		return fmt.Errorf("failed to insert organization: %w", err)
	}

	org.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// GetByID retrieves an organization by its ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*directory.Organization, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, directory.ErrOrgNotFound
	}

	var doc organizationDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, directory.ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return doc.toDomain(), nil
}

// GetBySlug retrieves an organization by its exact slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*directory.Organization, error) {
	var doc organizationDoc
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, directory.ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return doc.toDomain(), nil
}

// Update rewrites the mutable fields of an existing record
func (r *OrganizationRepository) Update(ctx context.Context, org *directory.Organization) error {
	oid, err := primitive.ObjectIDFromHex(org.ID)
	if err != nil {
		return directory.ErrOrgNotFound
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"name":            org.Name,
			"slug":            org.Slug,
			"collection_name": org.CollectionName,
			"updated_at":      org.UpdatedAt,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return directory.ErrNameConflict
		}
		return fmt.Errorf("failed to update organization: %w", err)
	}
	if res.MatchedCount == 0 {
		return directory.ErrOrgNotFound
	}
	return nil
}

// Delete removes the organization record
func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return directory.ErrOrgNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	if res.DeletedCount == 0 {
		return directory.ErrOrgNotFound
	}
	return nil
}

// List returns every live organization
func (r *OrganizationRepository) List(ctx context.Context) ([]*directory.Organization, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer cur.Close(ctx)

	var orgs []*directory.Organization
	for cur.Next(ctx) {
		var doc organizationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode organization: %w", err)
		}
		orgs = append(orgs, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}
	return orgs, nil
}
