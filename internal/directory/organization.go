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

package directory

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrOrgNotFound      = errors.New("organization not found")
	ErrOrgAlreadyExists = errors.New("organization with this name already exists")
	ErrNameConflict     = errors.New("organization name already in use")
	ErrInvalidName      = errors.New("organization name normalizes to an empty identifier")
	ErrCollectionExists = errors.New("tenant collection already exists")
)

// Organization is the registry record for a tenant. Slug is the uniqueness
// key across the whole directory; CollectionName is a pure function of Slug
// and changes in lockstep with it. AdminID is set at creation and never
// reassigned.
type Organization struct {
	ID             string
	Name           string
	Slug           string
	CollectionName string
	AdminID        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository defines the interface for organization persistence. Create must
// reject a second live record with the same slug (returning
// ErrOrgAlreadyExists), which is what closes the concurrent-create race.
type Repository interface {
	// Create persists a new organization and assigns its ID.
	Create(ctx context.Context, org *Organization) error

	// GetByID retrieves an organization by its ID.
	GetByID(ctx context.Context, id string) (*Organization, error)

	// GetBySlug retrieves an organization by its exact slug.
	GetBySlug(ctx context.Context, slug string) (*Organization, error)

	// Update rewrites the mutable fields (name, slug, collection name,
	// updated-at) of an existing record.
	Update(ctx context.Context, org *Organization) error

	// Delete removes the organization record.
	Delete(ctx context.Context, id string) error

	// List returns every live organization.
	List(ctx context.Context) ([]*Organization, error)
}

// CollectionManager owns the existence of physical tenant collections, but
// never the metadata describing them. There is no cross-collection
// transaction underneath any of these calls.
type CollectionManager interface {
	// Provision creates an empty named collection, failing with
	// ErrCollectionExists if one already exists.
	Provision(ctx context.Context, name string) error

	// Migrate copies every document from old into new (creating new if
	// absent, assigning each document fresh identity) and then drops old.
	// It returns the number of documents moved. A crash between the copy
	// and the drop can leave both collections populated; callers must not
	// blindly retry against the same pair.
	Migrate(ctx context.Context, oldName, newName string) (int64, error)

	// Drop removes the named collection. Missing collections are not an
	// error.
	Drop(ctx context.Context, name string) error

	// List returns the names of all collections in the store, tenant
	// collections included, for reconciliation sweeps.
	List(ctx context.Context) ([]string, error)
}

// CredentialRemover is the slice of the identity service the directory needs
// during organization deletion.
type CredentialRemover interface {
	DeleteAdmin(ctx context.Context, adminID string) error
}
