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

// Package token issues and verifies the bearer tokens administrators present
// on mutating requests. A token binds the administrator to the organization
// it owned at issue time, display name included; the access gate compares
// that snapshot against current state.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the decoded payload of an access token.
type Claims struct {
	AdminID          string
	OrganizationID   string
	OrganizationName string
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewIssuer creates a token issuer
func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs an access token for an administrator and the organization it
// owns.
func (i *Issuer) Issue(adminID, orgID, orgName string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":      i.issuer,
		"sub":      adminID,
		"org_id":   orgID,
		"org_name": orgName,
		"iat":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies a token string and returns its claims. Every failure mode
// (bad signature, wrong algorithm, expiry, missing claims) collapses into
// ErrInvalidToken; callers have no reason to distinguish them.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	orgID, _ := mapClaims["org_id"].(string)
	orgName, _ := mapClaims["org_name"].(string)
	if sub == "" || orgID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		AdminID:          sub,
		OrganizationID:   orgID,
		OrganizationName: orgName,
	}, nil
}
