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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/orgdir/orgdir/internal/access"
	"github.com/orgdir/orgdir/internal/directory"
	"github.com/orgdir/orgdir/internal/identity"
	"github.com/orgdir/orgdir/internal/observability/logger"
	"github.com/orgdir/orgdir/internal/slug"
)

// OrganizationView is the wire representation of an organization.
type OrganizationView struct {
	ID               string    `json:"id"`
	OrganizationName string    `json:"organization_name"`
	CollectionName   string    `json:"collection_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newOrganizationView(org *directory.Organization) OrganizationView {
	return OrganizationView{
		ID:               org.ID,
		OrganizationName: org.Name,
		CollectionName:   org.CollectionName,
		CreatedAt:        org.CreatedAt,
		UpdatedAt:        org.UpdatedAt,
	}
}

// CreateOrganizationRequest represents organization registration data
type CreateOrganizationRequest struct {
	OrganizationName string `json:"organization_name"`
	AdminEmail       string `json:"admin_email"`
	AdminPassword    string `json:"admin_password"`
}

// CreateOrganization registers an organization together with its
// administrator account and tenant collection.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if slug.Normalize(req.OrganizationName) == "" {
		respondError(w, http.StatusBadRequest, "organization name yields an empty identifier")
		return
	}

	// Cheap pre-check so the common duplicate case fails before an
	// administrator account is created. The unique slug index remains the
	// authority for concurrent requests.
	if _, err := h.directoryService.GetByName(r.Context(), req.OrganizationName); err == nil {
		respondError(w, http.StatusConflict, "organization already exists")
		return
	} else if !errors.Is(err, directory.ErrOrgNotFound) {
		respondError(w, http.StatusInternalServerError, "failed to check organization name")
		return
	}

	admin, err := h.identityService.CreateAdmin(r.Context(), req.AdminEmail, req.AdminPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to create administrator",
				logger.Error(err),
				logger.Email(req.AdminEmail),
			)
			respondError(w, http.StatusInternalServerError, "failed to create administrator")
		}
		return
	}

	org, err := h.directoryService.Create(r.Context(), req.OrganizationName, admin.ID)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrInvalidName):
			respondError(w, http.StatusBadRequest, "organization name yields an empty identifier")
		case errors.Is(err, directory.ErrOrgAlreadyExists):
			// Lost the race after the pre-check. Remove the account we
			// just created so the loser leaves nothing behind.
			if derr := h.identityService.DeleteAdmin(r.Context(), admin.ID); derr != nil {
				slog.ErrorContext(r.Context(), "failed to remove administrator after lost create race",
					logger.Error(derr),
					logger.AdminID(admin.ID),
				)
			}
			respondError(w, http.StatusConflict, "organization already exists")
		default:
			slog.ErrorContext(r.Context(), "failed to create organization",
				logger.Error(err),
				logger.AdminID(admin.ID),
			)
			respondError(w, http.StatusInternalServerError, "failed to create organization")
		}
		return
	}

	if err := h.identityService.LinkOrganization(r.Context(), admin.ID, org.ID); err != nil {
		// Organization and collection exist; the administrator record is
		// just not linked yet. Surface the failure instead of unwinding
		// the whole create.
		slog.ErrorContext(r.Context(), "failed to link administrator to organization",
			logger.Error(err),
			logger.OrgID(org.ID),
			logger.AdminID(admin.ID),
		)
		respondError(w, http.StatusInternalServerError, "failed to link administrator")
		return
	}

	respondJSON(w, http.StatusCreated, newOrganizationView(org))
}

// GetOrganization looks up an organization's public metadata by display
// name. Any name normalizing to the same slug finds the same record.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("organization_name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "organization_name is required")
		return
	}

	org, err := h.directoryService.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, directory.ErrOrgNotFound) {
			respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to look up organization", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to look up organization")
		return
	}

	respondJSON(w, http.StatusOK, newOrganizationView(org))
}

// UpdateOrganizationRequest represents a combined organization and
// credential update. All fields are optional; empty fields are untouched.
type UpdateOrganizationRequest struct {
	OrganizationName string `json:"organization_name,omitempty"`
	AdminEmail       string `json:"admin_email,omitempty"`
	AdminPassword    string `json:"admin_password,omitempty"`
}

// UpdateOrganization renames the organization and/or rotates the
// administrator's credentials.
func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req UpdateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := h.gate.Authorize(r.Context(), claims)
	if err != nil {
		respondAuthorizeError(w, err)
		return
	}

	if req.OrganizationName != "" {
		org, err = h.directoryService.Rename(r.Context(), org, req.OrganizationName)
		if err != nil {
			switch {
			case errors.Is(err, directory.ErrInvalidName):
				respondError(w, http.StatusBadRequest, "organization name yields an empty identifier")
			case errors.Is(err, directory.ErrNameConflict):
				respondError(w, http.StatusConflict, "organization name already in use")
			default:
				slog.ErrorContext(r.Context(), "failed to rename organization",
					logger.Error(err),
					logger.OrgID(org.ID),
				)
				respondError(w, http.StatusInternalServerError, "failed to rename organization")
			}
			return
		}
	}

	if req.AdminEmail != "" || req.AdminPassword != "" {
		err := h.identityService.UpdateCredentials(r.Context(), claims.AdminID, req.AdminEmail, req.AdminPassword)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidEmail):
				respondError(w, http.StatusBadRequest, "invalid email address")
			case errors.Is(err, identity.ErrWeakPassword):
				respondError(w, http.StatusBadRequest, "password does not meet security requirements")
			default:
				slog.ErrorContext(r.Context(), "failed to update administrator credentials",
					logger.Error(err),
					logger.AdminID(claims.AdminID),
				)
				respondError(w, http.StatusInternalServerError, "failed to update credentials")
			}
			return
		}
	}

	respondJSON(w, http.StatusOK, newOrganizationView(org))
}

// DeleteOrganizationRequest carries the confirmation name for deletion.
type DeleteOrganizationRequest struct {
	OrganizationName string `json:"organization_name"`
}

// DeleteOrganization removes the organization, its tenant collection and
// its administrator account. The request must repeat the organization's
// current name as a confirmation.
func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req DeleteOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := h.gate.AuthorizeDelete(r.Context(), claims, req.OrganizationName)
	if err != nil {
		respondAuthorizeError(w, err)
		return
	}

	if err := h.directoryService.Delete(r.Context(), org); err != nil {
		slog.ErrorContext(r.Context(), "failed to delete organization",
			logger.Error(err),
			logger.OrgID(org.ID),
		)
		respondError(w, http.StatusInternalServerError, "failed to delete organization")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "organization deleted successfully",
	})
}

// respondAuthorizeError maps access gate failures. A verified token whose
// organization has since been deleted yields Not Found, not Forbidden.
func respondAuthorizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrOrgNotFound):
		respondError(w, http.StatusNotFound, "organization not found")
	case errors.Is(err, access.ErrForbidden):
		respondError(w, http.StatusForbidden, "not authorized for this organization")
	default:
		respondError(w, http.StatusInternalServerError, "authorization check failed")
	}
}
