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
	"fmt"
	"log/slog"
	"time"

	"github.com/orgdir/orgdir/internal/audit"
	"github.com/orgdir/orgdir/internal/observability/logger"
	"github.com/orgdir/orgdir/internal/slug"
)

// Service is the organization registry. It enforces slug uniqueness and
// sequences every metadata mutation against the physical collection work so
// that a crash at any point leaves orphaned-but-harmless artifacts rather
// than a live record pointing at missing data.
type Service struct {
	repo        Repository
	collections CollectionManager
	admins      CredentialRemover
	auditLogger audit.Logger
}

// NewService creates a new directory service
func NewService(repo Repository, collections CollectionManager, admins CredentialRemover, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		collections: collections,
		admins:      admins,
		auditLogger: auditLogger,
	}
}

// Create registers a new organization owned by an existing administrator and
// provisions its tenant collection. The administrator must already exist so
// AdminID is embedded with the rest of the record in a single insert: after
// that insert the organization is visible to lookups, and a half-created
// organization without an administrator must never be observable.
func (s *Service) Create(ctx context.Context, name, adminID string) (*Organization, error) {
	sl := slug.Normalize(name)
	if sl == "" {
		return nil, ErrInvalidName
	}

	if _, err := s.repo.GetBySlug(ctx, sl); err == nil {
		return nil, ErrOrgAlreadyExists
	} else if err != ErrOrgNotFound {
		return nil, fmt.Errorf("failed to check organization name: %w", err)
	}

	now := time.Now()
	org := &Organization{
		Name:           name,
		Slug:           sl,
		CollectionName: slug.CollectionName(sl),
		AdminID:        adminID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The repository holds a unique index on slug, so a concurrent create
	// that slipped past the check above still loses here.
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}

	if err := s.collections.Provision(ctx, org.CollectionName); err != nil {
		return nil, fmt.Errorf("failed to provision collection %s: %w", org.CollectionName, err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrgCreated,
		OrgID:    org.ID,
		ActorID:  adminID,
		Resource: org.Slug,
	})

	return org, nil
}

// GetByName resolves a display name to its organization via the slug.
func (s *Service) GetByName(ctx context.Context, name string) (*Organization, error) {
	sl := slug.Normalize(name)
	if sl == "" {
		return nil, ErrOrgNotFound
	}
	return s.repo.GetBySlug(ctx, sl)
}

// GetByID retrieves an organization by ID.
func (s *Service) GetByID(ctx context.Context, id string) (*Organization, error) {
	return s.repo.GetByID(ctx, id)
}

// Rename changes an organization's display name. When the new name keeps the
// same slug this is purely a metadata touch; otherwise every document is
// migrated into the new tenant collection before the registry record is
// repointed, so an interrupted migration leaves the old collection as the
// collection of record and the rename can be re-invoked.
func (s *Service) Rename(ctx context.Context, org *Organization, newName string) (*Organization, error) {
	newSlug := slug.Normalize(newName)
	if newSlug == "" {
		return nil, ErrInvalidName
	}

	updated := *org
	updated.Name = newName
	updated.UpdatedAt = time.Now()

	if newSlug == org.Slug {
		// No-op on collection identity; the display name may still change.
		if newName == org.Name {
			return org, nil
		}
		if err := s.repo.Update(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to update organization name: %w", err)
		}
		return &updated, nil
	}

	existing, err := s.repo.GetBySlug(ctx, newSlug)
	if err == nil && existing.ID != org.ID {
		return nil, ErrNameConflict
	} else if err != nil && err != ErrOrgNotFound {
		return nil, fmt.Errorf("failed to check organization name: %w", err)
	}

	newCollection := slug.CollectionName(newSlug)
	moved, err := s.collections.Migrate(ctx, org.CollectionName, newCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate collection %s to %s: %w", org.CollectionName, newCollection, err)
	}

	updated.Slug = newSlug
	updated.CollectionName = newCollection
	if err := s.repo.Update(ctx, &updated); err != nil {
		// The documents now live in the new collection while the record
		// still names the old, dropped one. Surface loudly: this is the
		// state the reconciliation sweep exists for.
		slog.ErrorContext(ctx, "organization record not repointed after migration",
			logger.OrgID(org.ID),
			logger.Collection(newCollection),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to update organization after migration: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrgRenamed,
		OrgID:    org.ID,
		ActorID:  org.AdminID,
		Resource: newSlug,
		Metadata: map[string]any{
			"old_slug":        org.Slug,
			"documents_moved": moved,
		},
	})

	return &updated, nil
}

// Delete removes an organization, its tenant collection and its
// administrator credentials. The registry record goes first: a crash
// mid-delete then leaves an orphaned collection or credential record, never
// a live organization pointing at missing data.
func (s *Service) Delete(ctx context.Context, org *Organization) error {
	if err := s.repo.Delete(ctx, org.ID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	if err := s.collections.Drop(ctx, org.CollectionName); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", org.CollectionName, err)
	}

	if err := s.admins.DeleteAdmin(ctx, org.AdminID); err != nil {
		return fmt.Errorf("failed to delete administrator: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrgDeleted,
		OrgID:    org.ID,
		ActorID:  org.AdminID,
		Resource: org.Slug,
	})

	return nil
}

// OrphanCollections returns tenant collections no live organization points
// at: leftovers of interrupted renames and deletes. The reconciliation
// sweep in cmd/sweep reaps them.
func (s *Service) OrphanCollections(ctx context.Context) ([]string, error) {
	names, err := s.collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	orgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	owned := make(map[string]struct{}, len(orgs))
	for _, org := range orgs {
		owned[org.CollectionName] = struct{}{}
	}

	var orphans []string
	for _, name := range names {
		if !slug.IsTenantCollection(name) {
			continue
		}
		if _, ok := owned[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}
