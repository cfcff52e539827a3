package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/orgs"
)

const maxLogoSize = 5 << 20 // 5 MiB

type OrgHandler struct {
	orgService *orgs.Service
}

func NewOrgHandler(orgService *orgs.Service) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

// CreateOrgRequest represents the request to create an organization
type CreateOrgRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// UpdateOrgRequest carries partial organization updates
type UpdateOrgRequest struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
}

// OrgResponse represents an organization in API responses
type OrgResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	LogoURL   string `json:"logo_url,omitempty"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

func orgToResponse(org *models.Organization) OrgResponse {
	return OrgResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		LogoURL:   org.LogoURL,
		CreatedBy: org.CreatedBy.String(),
		CreatedAt: org.CreatedAt.Format(time.RFC3339),
	}
}

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
}

func membershipToResponse(m *models.Membership) MembershipResponse {
	resp := MembershipResponse{
		ID:        m.ID.String(),
		OrgID:     m.OrganizationID.String(),
		UserID:    m.UserID.String(),
		Role:      m.Role,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
	if m.User != nil {
		resp.Email = m.User.Email
		resp.Name = m.User.Name
	}
	return resp
}

// writeOrgError maps organization lifecycle errors onto HTTP statuses.
func writeOrgError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orgs.ErrInvalidName),
		errors.Is(err, orgs.ErrInvalidSlug),
		errors.Is(err, orgs.ErrInvalidEmail),
		errors.Is(err, orgs.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, orgs.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, orgs.ErrOrgNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
	case errors.Is(err, orgs.ErrInvitationNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invitation not found"})
	case errors.Is(err, orgs.ErrSlugTaken):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Slug is already taken"})
	case errors.Is(err, orgs.ErrAlreadyMember):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "User is already a member"})
	case errors.Is(err, orgs.ErrInvitationNotPending):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Invitation is no longer pending"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

func parseOrgID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// formLogo extracts an optional logo upload from a multipart form.
func formLogo(r *http.Request) (*orgs.LogoUpload, multipart.File, error) {
	file, header, err := r.FormFile("logo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &orgs.LogoUpload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, file, nil
}

// Create handles POST /api/v1/orgs. Accepts JSON, or multipart form data
// when a logo file accompanies the request.
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	input := orgs.CreateInput{CreatorID: userID}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxLogoSize); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart form"})
			return
		}
		input.Name = r.FormValue("name")
		input.Slug = r.FormValue("slug")

		logo, file, err := formLogo(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid logo upload"})
			return
		}
		if file != nil {
			defer file.Close()
		}
		input.Logo = logo
	} else {
		var req CreateOrgRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
		input.Name = req.Name
		input.Slug = req.Slug
	}

	org, err := h.orgService.Create(r.Context(), input)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, orgToResponse(org))
}

// List handles GET /api/v1/orgs
func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	result, err := h.orgService.ListForUser(r.Context(), userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	orgResponses := make([]OrgResponse, len(result.Organizations))
	for i := range result.Organizations {
		orgResponses[i] = orgToResponse(&result.Organizations[i])
	}
	memberResponses := make([]MembershipResponse, len(result.Memberships))
	for i := range result.Memberships {
		memberResponses[i] = membershipToResponse(&result.Memberships[i])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"organizations": orgResponses,
		"memberships":   memberResponses,
	})
}

// CheckSlug handles GET /api/v1/orgs/check-slug?slug=...
func (h *OrgHandler) CheckSlug(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")

	available, err := h.orgService.CheckSlugAvailability(r.Context(), slug)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"slug":      slug,
		"available": available,
	})
}

// Get handles GET /api/v1/orgs/:id
func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseOrgID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	allowed, err := h.orgService.CheckPermission(r.Context(), orgID, userID, orgs.RoleMember)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return
	}

	org, err := h.orgService.Get(r.Context(), orgID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orgToResponse(org))
}

// Update handles PUT /api/v1/orgs/:id
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseOrgID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	var input orgs.UpdateInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxLogoSize); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart form"})
			return
		}
		if r.Form.Has("name") {
			name := r.FormValue("name")
			input.Name = &name
		}
		if r.Form.Has("slug") {
			slug := r.FormValue("slug")
			input.Slug = &slug
		}

		logo, file, err := formLogo(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid logo upload"})
			return
		}
		if file != nil {
			defer file.Close()
		}
		input.Logo = logo
	} else {
		var req UpdateOrgRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
		input.Name = req.Name
		input.Slug = req.Slug
	}

	org, err := h.orgService.Update(r.Context(), orgID, input, userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orgToResponse(org))
}

// Delete handles DELETE /api/v1/orgs/:id
func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseOrgID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	if err := h.orgService.Delete(r.Context(), orgID, userID); err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Organization deleted"})
}

// ListMembers handles GET /api/v1/orgs/:id/members
func (h *OrgHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, ok := parseOrgID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	memberships, err := h.orgService.ListMembers(r.Context(), orgID, userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	response := make([]MembershipResponse, len(memberships))
	for i := range memberships {
		response[i] = membershipToResponse(&memberships[i])
	}

	writeJSON(w, http.StatusOK, response)
}
