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

package http

import (
	"context"

	"github.com/orgdir/orgdir/internal/token"
)

type contextKey string

const claimsKey contextKey = "token_claims"

// GetClaims retrieves the verified token claims from context.
// Returns nil when the request did not pass AuthMiddleware.
func GetClaims(ctx context.Context) *token.Claims {
	if val, ok := ctx.Value(claimsKey).(*token.Claims); ok {
		return val
	}
	return nil
}
