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
	"testing"
	"time"

	"github.com/orgdir/orgdir/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrgRepo struct {
	mock.Mock
	calls *[]string
}

func (m *mockOrgRepo) record(name string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, name)
	}
}

func (m *mockOrgRepo) Create(ctx context.Context, org *Organization) error {
	m.record("repo.Create")
	args := m.Called(ctx, org)
	if args.Error(0) == nil {
		org.ID = "org-1"
	}
	return args.Error(0)
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Organization), args.Error(1)
}

func (m *mockOrgRepo) GetBySlug(ctx context.Context, sl string) (*Organization, error) {
	args := m.Called(ctx, sl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Organization), args.Error(1)
}

func (m *mockOrgRepo) Update(ctx context.Context, org *Organization) error {
	m.record("repo.Update")
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockOrgRepo) Delete(ctx context.Context, id string) error {
	m.record("repo.Delete")
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrgRepo) List(ctx context.Context) ([]*Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Organization), args.Error(1)
}

type mockCollections struct {
	mock.Mock
	calls *[]string
}

func (m *mockCollections) record(name string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, name)
	}
}

func (m *mockCollections) Provision(ctx context.Context, name string) error {
	m.record("collections.Provision")
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *mockCollections) Migrate(ctx context.Context, oldName, newName string) (int64, error) {
	m.record("collections.Migrate")
	args := m.Called(ctx, oldName, newName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCollections) Drop(ctx context.Context, name string) error {
	m.record("collections.Drop")
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *mockCollections) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockAdmins struct {
	mock.Mock
	calls *[]string
}

func (m *mockAdmins) DeleteAdmin(ctx context.Context, adminID string) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, "admins.DeleteAdmin")
	}
	args := m.Called(ctx, adminID)
	return args.Error(0)
}

func newMocks() (*mockOrgRepo, *mockCollections, *mockAdmins, *[]string, *Service) {
	calls := &[]string{}
	repo := &mockOrgRepo{calls: calls}
	cols := &mockCollections{calls: calls}
	admins := &mockAdmins{calls: calls}
	svc := NewService(repo, cols, admins, audit.NewSlogLogger())
	return repo, cols, admins, calls, svc
}

// TestPurpose: Validates organization creation derives the slug and
// collection name, embeds the administrator, and provisions the collection.
// Scope: Unit Test
// Expected: Record persisted with matching created/updated timestamps and a
// collection provisioned under the derived name.
// Test Case ID: DIR-01
func TestDirectory_Create(t *testing.T) {
	repo, cols, _, _, svc := newMocks()
	ctx := context.Background()

	repo.On("GetBySlug", ctx, "wedding_co").Return(nil, ErrOrgNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(o *Organization) bool {
		return o.Name == "Wedding Co" &&
			o.Slug == "wedding_co" &&
			o.CollectionName == "org_wedding_co" &&
			o.AdminID == "admin-1" &&
			o.CreatedAt.Equal(o.UpdatedAt)
	})).Return(nil)
	cols.On("Provision", ctx, "org_wedding_co").Return(nil)

	org, err := svc.Create(ctx, "Wedding Co", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", org.ID)
	assert.Equal(t, "org_wedding_co", org.CollectionName)
	repo.AssertExpectations(t)
	cols.AssertExpectations(t)
}

// TestPurpose: Validates slug-level uniqueness on create, including the
// store-enforced backstop for the concurrent-create race.
// Scope: Unit Test
// Expected: A taken slug fails ErrOrgAlreadyExists; a duplicate-key error
// from the insert surfaces the same way; no collection is provisioned.
// Test Case ID: DIR-02
func TestDirectory_Create_AlreadyExists(t *testing.T) {
	ctx := context.Background()

	t.Run("existing record", func(t *testing.T) {
		repo, cols, _, _, svc := newMocks()
		repo.On("GetBySlug", ctx, "acme").Return(&Organization{ID: "org-9", Slug: "acme"}, nil)

		_, err := svc.Create(ctx, "Acme", "admin-1")
		assert.ErrorIs(t, err, ErrOrgAlreadyExists)
		cols.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)
	})

	t.Run("lost insert race", func(t *testing.T) {
		repo, cols, _, _, svc := newMocks()
		repo.On("GetBySlug", ctx, "acme").Return(nil, ErrOrgNotFound)
		repo.On("Create", ctx, mock.Anything).Return(ErrOrgAlreadyExists)

		_, err := svc.Create(ctx, "Acme", "admin-1")
		assert.ErrorIs(t, err, ErrOrgAlreadyExists)
		cols.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)
	})
}

// TestPurpose: Validates rejection of names that normalize to nothing.
// Scope: Unit Test
// Expected: ErrInvalidName without touching the repository.
// Test Case ID: DIR-03
func TestDirectory_Create_InvalidName(t *testing.T) {
	repo, _, _, _, svc := newMocks()

	_, err := svc.Create(context.Background(), "!!!", "admin-1")
	assert.ErrorIs(t, err, ErrInvalidName)
	repo.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that a rename to a name with the same slug never
// touches the physical collection.
// Scope: Unit Test
// Expected: Display name and updated-at change, no migration; renaming to
// the identical name is a full no-op.
// Test Case ID: DIR-04
func TestDirectory_Rename_SameSlugNoop(t *testing.T) {
	repo, cols, _, _, svc := newMocks()
	ctx := context.Background()

	org := &Organization{
		ID: "org-1", Name: "acme", Slug: "acme",
		CollectionName: "org_acme", AdminID: "admin-1",
		UpdatedAt: time.Now().Add(-time.Hour),
	}

	repo.On("Update", ctx, mock.MatchedBy(func(o *Organization) bool {
		return o.Name == "Acme" && o.Slug == "acme" && o.CollectionName == "org_acme" &&
			o.UpdatedAt.After(org.UpdatedAt)
	})).Return(nil)

	updated, err := svc.Rename(ctx, org, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "org_acme", updated.CollectionName)
	cols.AssertNotCalled(t, "Migrate", mock.Anything, mock.Anything, mock.Anything)

	// Identical name: nothing to write at all.
	same, err := svc.Rename(ctx, org, "acme")
	require.NoError(t, err)
	assert.Same(t, org, same)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

// TestPurpose: Validates that renaming onto another organization's slug is
// refused before any migration starts.
// Scope: Unit Test
// Expected: ErrNameConflict; Migrate never called.
// Test Case ID: DIR-05
func TestDirectory_Rename_NameConflict(t *testing.T) {
	repo, cols, _, _, svc := newMocks()
	ctx := context.Background()

	org := &Organization{ID: "org-1", Name: "Acme", Slug: "acme", CollectionName: "org_acme"}
	repo.On("GetBySlug", ctx, "globex").Return(&Organization{ID: "org-2", Slug: "globex"}, nil)

	_, err := svc.Rename(ctx, org, "Globex")
	assert.ErrorIs(t, err, ErrNameConflict)
	cols.AssertNotCalled(t, "Migrate", mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates the migrate-then-repoint ordering of a slug-changing
// rename.
// Scope: Unit Test
// Expected: Migration completes before the registry record is rewritten; the
// returned record carries the new slug and collection name.
// Test Case ID: DIR-06
func TestDirectory_Rename_MigratesBeforeRepoint(t *testing.T) {
	repo, cols, _, calls, svc := newMocks()
	ctx := context.Background()

	org := &Organization{ID: "org-1", Name: "Wedding Co", Slug: "wedding_co", CollectionName: "org_wedding_co", AdminID: "admin-1"}
	repo.On("GetBySlug", ctx, "wedding_co_2").Return(nil, ErrOrgNotFound)
	cols.On("Migrate", ctx, "org_wedding_co", "org_wedding_co_2").Return(int64(3), nil)
	repo.On("Update", ctx, mock.MatchedBy(func(o *Organization) bool {
		return o.Slug == "wedding_co_2" && o.CollectionName == "org_wedding_co_2" && o.Name == "Wedding Co 2"
	})).Return(nil)

	updated, err := svc.Rename(ctx, org, "Wedding Co 2")
	require.NoError(t, err)
	assert.Equal(t, "org_wedding_co_2", updated.CollectionName)
	assert.Equal(t, []string{"collections.Migrate", "repo.Update"}, *calls)
}

// TestPurpose: Validates that a failed migration leaves the registry record
// untouched, so the old collection remains the collection of record.
// Scope: Unit Test
// Expected: Error propagates; Update never called.
// Test Case ID: DIR-07
func TestDirectory_Rename_MigrationFailure(t *testing.T) {
	repo, cols, _, _, svc := newMocks()
	ctx := context.Background()

	org := &Organization{ID: "org-1", Name: "Acme", Slug: "acme", CollectionName: "org_acme"}
	migErr := errors.New("cursor closed")
	repo.On("GetBySlug", ctx, "globex").Return(nil, ErrOrgNotFound)
	cols.On("Migrate", ctx, "org_acme", "org_globex").Return(int64(0), migErr)

	_, err := svc.Rename(ctx, org, "Globex")
	assert.ErrorIs(t, err, migErr)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestPurpose: Validates deletion ordering: registry record first, then the
// physical collection, then the credential record.
// Scope: Unit Test
// Expected: A crash after any step leaves only orphaned artifacts, never a
// live organization pointing at missing data.
// Test Case ID: DIR-08
func TestDirectory_Delete_Ordering(t *testing.T) {
	repo, cols, admins, calls, svc := newMocks()
	ctx := context.Background()

	org := &Organization{ID: "org-1", Slug: "acme", CollectionName: "org_acme", AdminID: "admin-1"}
	repo.On("Delete", ctx, "org-1").Return(nil)
	cols.On("Drop", ctx, "org_acme").Return(nil)
	admins.On("DeleteAdmin", ctx, "admin-1").Return(nil)

	require.NoError(t, svc.Delete(ctx, org))
	assert.Equal(t, []string{"repo.Delete", "collections.Drop", "admins.DeleteAdmin"}, *calls)
}

// TestPurpose: Validates orphan detection for the reconciliation sweep.
// Scope: Unit Test
// Expected: Tenant-namespace collections without an owning organization are
// reported; metadata collections and owned collections are not.
// Test Case ID: DIR-09
func TestDirectory_OrphanCollections(t *testing.T) {
	repo, cols, _, _, svc := newMocks()
	ctx := context.Background()

	cols.On("List", ctx).Return([]string{
		"organizations", "admins", "org_acme", "org_left_behind", "org_wedding_co",
	}, nil)
	repo.On("List", ctx).Return([]*Organization{
		{ID: "org-1", CollectionName: "org_acme"},
		{ID: "org-2", CollectionName: "org_wedding_co"},
	}, nil)

	orphans, err := svc.OrphanCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"org_left_behind"}, orphans)
}
