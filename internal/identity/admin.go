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
	"errors"
	"time"
)

// Domain errors
var (
	ErrAdminNotFound      = errors.New("administrator not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Admin represents an organization administrator. Every organization owns
// exactly one. An Admin with an empty OrganizationID is unlinked: it exists
// between its own creation and the creation of the organization that embeds
// its ID, and that state is valid but incomplete.
type Admin struct {
	ID             string
	Email          string
	PasswordHash   string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CredentialUpdate carries a partial credential change. Empty fields are
// left untouched.
type CredentialUpdate struct {
	Email        string
	PasswordHash string
}

// Repository defines the interface for administrator persistence. Email
// uniqueness is deliberately not enforced at this layer; the directory only
// guarantees name/slug uniqueness.
type Repository interface {
	// Create persists a new, unlinked administrator.
	Create(ctx context.Context, admin *Admin) error

	// GetByID retrieves an administrator by ID.
	GetByID(ctx context.Context, id string) (*Admin, error)

	// GetByEmail retrieves an administrator by login email.
	GetByEmail(ctx context.Context, email string) (*Admin, error)

	// LinkOrganization sets the back-reference to the owning organization.
	LinkOrganization(ctx context.Context, adminID, orgID string) error

	// UpdateCredentials applies a partial email/password-hash change.
	UpdateCredentials(ctx context.Context, adminID string, update CredentialUpdate) error

	// Delete removes an administrator record.
	Delete(ctx context.Context, id string) error
}
