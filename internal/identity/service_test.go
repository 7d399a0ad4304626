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

package identity

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/orgdir/orgdir/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAdminRepository is a simple in-memory implementation of Repository.
// IDs are assigned at insert, the way the document store does it.
type MockAdminRepository struct {
	admins map[string]*Admin
	nextID int
}

func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{admins: make(map[string]*Admin)}
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *Admin) error {
	m.nextID++
	admin.ID = fmt.Sprintf("admin-%d", m.nextID)
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	cp := *admin
	m.admins[admin.ID] = &cp
	return nil
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (m *MockAdminRepository) LinkOrganization(ctx context.Context, adminID, orgID string) error {
	a, ok := m.admins[adminID]
	if !ok {
		return ErrAdminNotFound
	}
	a.OrganizationID = orgID
	a.UpdatedAt = time.Now()
	return nil
}

func (m *MockAdminRepository) UpdateCredentials(ctx context.Context, adminID string, update CredentialUpdate) error {
	a, ok := m.admins[adminID]
	if !ok {
		return ErrAdminNotFound
	}
	if update.Email != "" {
		a.Email = update.Email
	}
	if update.PasswordHash != "" {
		a.PasswordHash = update.PasswordHash
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (m *MockAdminRepository) Delete(ctx context.Context, id string) error {
	delete(m.admins, id)
	return nil
}

func newTestService() (*Service, *MockAdminRepository) {
	repo := NewMockAdminRepository()
	hasher := NewPasswordHasher(16*1024, 1, 1, 16, 32)
	return NewService(repo, hasher, audit.NewSlogLogger()), repo
}

// TestPurpose: Validates that administrator creation stores only an Argon2id
// hash, never the plaintext password.
// Scope: Unit Test
// Security: Credential storage (CWE-256)
// Expected: Stored hash is in encoded $argon2id$ form and verifies against
// the original password.
// Test Case ID: IDN-01
func TestIdentity_CreateAdmin_HashesPassword(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)
	assert.Empty(t, admin.OrganizationID)

	stored := repo.admins[admin.ID]
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
	assert.NotContains(t, stored.PasswordHash, "secret1")

	hasher := NewPasswordHasher(16*1024, 1, 1, 16, 32)
	ok, err := hasher.Verify("secret1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestPurpose: Validates input checks on administrator creation.
// Scope: Unit Test
// Expected: Malformed emails and short passwords are rejected with the
// corresponding domain errors.
// Test Case ID: IDN-02
func TestIdentity_CreateAdmin_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.CreateAdmin(ctx, "a@x.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

// TestPurpose: Validates authentication outcomes for present/absent
// administrators and wrong passwords.
// Scope: Unit Test
// Security: Authentication (CWE-287); absent account and wrong password are
// indistinguishable to the caller.
// Expected: Correct password authenticates; wrong password and unknown email
// both fail with ErrInvalidCredentials.
// Test Case ID: IDN-03
func TestIdentity_Authenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAdmin(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	admin, err := svc.Authenticate(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, admin.ID)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// TestPurpose: Validates partial credential updates.
// Scope: Unit Test
// Expected: Email-only and password-only updates leave the other field
// untouched; the new password verifies and the old one stops working.
// Test Case ID: IDN-04
func TestIdentity_UpdateCredentials_Partial(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	oldHash := repo.admins[admin.ID].PasswordHash

	require.NoError(t, svc.UpdateCredentials(ctx, admin.ID, "b@x.com", ""))
	assert.Equal(t, "b@x.com", repo.admins[admin.ID].Email)
	assert.Equal(t, oldHash, repo.admins[admin.ID].PasswordHash)

	require.NoError(t, svc.UpdateCredentials(ctx, admin.ID, "", "secret2"))
	assert.Equal(t, "b@x.com", repo.admins[admin.ID].Email)
	assert.NotEqual(t, oldHash, repo.admins[admin.ID].PasswordHash)

	_, err = svc.Authenticate(ctx, "b@x.com", "secret2")
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "b@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// No-op update is accepted silently.
	assert.NoError(t, svc.UpdateCredentials(ctx, admin.ID, "", ""))
}

// TestPurpose: Validates the two-phase create-then-link pairing between
// administrator and organization.
// Scope: Unit Test
// Expected: A fresh administrator is unlinked; LinkOrganization sets the
// back-reference exactly once the organization exists.
// Test Case ID: IDN-05
func TestIdentity_LinkOrganization(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Empty(t, repo.admins[admin.ID].OrganizationID)

	require.NoError(t, svc.LinkOrganization(ctx, admin.ID, "org-1"))
	assert.Equal(t, "org-1", repo.admins[admin.ID].OrganizationID)
}

// TestPurpose: Validates hash verification rejects malformed credential
// material instead of panicking or accepting it.
// Scope: Unit Test
// Expected: Garbage encoded hashes produce an error, not a match.
// Test Case ID: IDN-06
func TestIdentity_Hasher_MalformedHash(t *testing.T) {
	hasher := NewPasswordHasher(16*1024, 1, 1, 16, 32)

	ok, err := hasher.Verify("secret1", "not-a-hash")
	assert.Error(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify("secret1", "$bcrypt$v=19$m=1,t=1,p=1$AAAA$BBBB")
	assert.Error(t, err)
	assert.False(t, ok)
}
