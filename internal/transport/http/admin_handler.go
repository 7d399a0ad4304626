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
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/orgdir/orgdir/internal/observability/logger"
)

// LoginRequest represents administrator credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login authenticates an administrator and issues an access token scoped
// to their organization.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	admin, err := h.gate.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if admin.OrganizationID == "" {
		// Account exists but was never linked to an organization, an
		// interrupted create. There is nothing a token could grant.
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	org, err := h.directoryService.GetByID(r.Context(), admin.OrganizationID)
	if err != nil {
		slog.ErrorContext(r.Context(), "administrator references missing organization",
			logger.Error(err),
			logger.AdminID(admin.ID),
			logger.OrgID(admin.OrganizationID),
		)
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	accessToken, err := h.issuer.Issue(admin.ID, org.ID, org.Name)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}
