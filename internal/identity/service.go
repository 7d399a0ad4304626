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

	"github.com/orgdir/orgdir/internal/audit"
)

// Service provides administrator credential management. It stores only
// password hashes; plaintext passwords never reach the repository, the
// audit log, or any other sink.
type Service struct {
	repo        Repository
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo Repository, hasher *PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// CreateAdmin creates a new, unlinked administrator. Email uniqueness is not
// enforced here; the directory guarantees only organization-name uniqueness.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (*Admin, error) {
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !isStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &Admin{
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create administrator: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAdminCreated,
		ActorID:  admin.ID,
		Resource: email,
	})

	return admin, nil
}

// Authenticate verifies an administrator's email/password pair. Absent
// administrators and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Admin, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			Resource: email,
			Metadata: map[string]any{"reason": "admin_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil || !valid {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ActorID:  admin.ID,
			OrgID:    admin.OrganizationID,
			Resource: email,
			Metadata: map[string]any{"reason": "invalid_password"},
		})
		return nil, ErrInvalidCredentials
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:    audit.TypeLoginSuccess,
		ActorID: admin.ID,
		OrgID:   admin.OrganizationID,
	})

	return admin, nil
}

// LinkOrganization sets the administrator's back-reference to the
// organization that embeds its ID. Called once, right after the
// organization record is created.
func (s *Service) LinkOrganization(ctx context.Context, adminID, orgID string) error {
	if err := s.repo.LinkOrganization(ctx, adminID, orgID); err != nil {
		return fmt.Errorf("failed to link administrator to organization: %w", err)
	}
	return nil
}

// GetAdmin retrieves an administrator by ID.
func (s *Service) GetAdmin(ctx context.Context, adminID string) (*Admin, error) {
	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

// UpdateCredentials changes the administrator's email and/or password.
// Empty arguments leave the corresponding field untouched.
func (s *Service) UpdateCredentials(ctx context.Context, adminID, newEmail, newPassword string) error {
	update := CredentialUpdate{}

	if newEmail != "" {
		if !isValidEmail(newEmail) {
			return ErrInvalidEmail
		}
		update.Email = newEmail
	}
	if newPassword != "" {
		if !isStrongPassword(newPassword) {
			return ErrWeakPassword
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		update.PasswordHash = hash
	}

	if update == (CredentialUpdate{}) {
		return nil
	}

	if err := s.repo.UpdateCredentials(ctx, adminID, update); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:    audit.TypeCredentialsChanged,
		ActorID: adminID,
		Metadata: map[string]any{
			"email_changed":    update.Email != "",
			"password_changed": update.PasswordHash != "",
		},
	})

	return nil
}

// DeleteAdmin removes an administrator record. Missing records are not an
// error so organization deletion stays retryable.
func (s *Service) DeleteAdmin(ctx context.Context, adminID string) error {
	if err := s.repo.Delete(ctx, adminID); err != nil {
		return fmt.Errorf("failed to delete administrator: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:    audit.TypeAdminDeleted,
		ActorID: adminID,
	})
	return nil
}

// Helper functions
func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && len(email) < 255
}

func isStrongPassword(password string) bool {
	// Minimum length mirrors the public API contract (min_length=6).
	return len(password) >= 6
}
