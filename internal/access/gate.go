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

// Package access decides whether an authenticated administrator may mutate
// the organization a request targets.
package access

import (
	"context"
	"errors"

	"github.com/orgdir/orgdir/internal/directory"
	"github.com/orgdir/orgdir/internal/identity"
	"github.com/orgdir/orgdir/internal/token"
)

var ErrForbidden = errors.New("administrator does not own this organization")

// Authenticator is the slice of the identity service the gate needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*identity.Admin, error)
	GetAdmin(ctx context.Context, adminID string) (*identity.Admin, error)
}

// OrganizationLookup is the slice of the directory the gate needs.
type OrganizationLookup interface {
	GetByID(ctx context.Context, id string) (*directory.Organization, error)
}

// Gate verifies administrator identity and organization ownership.
type Gate struct {
	admins Authenticator
	orgs   OrganizationLookup
}

// NewGate creates a new access gate
func NewGate(admins Authenticator, orgs OrganizationLookup) *Gate {
	return &Gate{
		admins: admins,
		orgs:   orgs,
	}
}

// Authenticate verifies a login attempt and returns the administrator.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (*identity.Admin, error) {
	return g.admins.Authenticate(ctx, email, password)
}

// Authorize resolves the organization named by the claims and verifies the
// bidirectional pairing: the administrator must point at the organization
// and the organization must point back. A stale token for a deleted
// organization fails with directory.ErrOrgNotFound.
func (g *Gate) Authorize(ctx context.Context, claims *token.Claims) (*directory.Organization, error) {
	org, err := g.orgs.GetByID(ctx, claims.OrganizationID)
	if err != nil {
		return nil, err
	}

	admin, err := g.admins.GetAdmin(ctx, claims.AdminID)
	if err != nil {
		return nil, ErrForbidden
	}
	if admin.OrganizationID != org.ID || org.AdminID != admin.ID {
		return nil, ErrForbidden
	}

	return org, nil
}

// AuthorizeDelete performs Authorize and additionally requires the caller to
// restate the organization's current display name as a confirmation token.
func (g *Gate) AuthorizeDelete(ctx context.Context, claims *token.Claims, confirmName string) (*directory.Organization, error) {
	org, err := g.Authorize(ctx, claims)
	if err != nil {
		return nil, err
	}
	if confirmName != org.Name {
		return nil, ErrForbidden
	}
	return org, nil
}
