package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/orgs"
)

type InvitationHandler struct {
	orgService *orgs.Service
}

func NewInvitationHandler(orgService *orgs.Service) *InvitationHandler {
	return &InvitationHandler{orgService: orgService}
}

// CreateInvitationRequest represents the request to invite a user
type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// AcceptInvitationRequest carries the invitation token being redeemed
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

// InvitationResponse represents an invitation in API responses. The token
// is only disclosed to the inviter at creation and resend time.
type InvitationResponse struct {
	ID        string `json:"id"`
	OrgID     string `json:"organization_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Token     string `json:"token,omitempty"`
	InvitedBy string `json:"invited_by"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

func invitationToResponse(inv *models.Invitation, includeToken bool) InvitationResponse {
	resp := InvitationResponse{
		ID:        inv.ID.String(),
		OrgID:     inv.OrganizationID.String(),
		Email:     inv.Email,
		Role:      inv.Role,
		Status:    string(inv.Status),
		InvitedBy: inv.InvitedBy.String(),
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}
	if includeToken {
		resp.Token = inv.Token
	}
	return resp
}

// Create handles POST /api/v1/orgs/:id/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	invitation, err := h.orgService.Invite(r.Context(), orgs.InviteInput{
		OrganizationID: orgID,
		Email:          req.Email,
		Role:           req.Role,
		InviterID:      userID,
	})
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, invitationToResponse(invitation, true))
}

// List handles GET /api/v1/orgs/:id/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	invitations, total, err := h.orgService.ListInvitations(r.Context(), orgID, userID, orgs.ListInvitationsOptions{
		Status: r.URL.Query().Get("status"),
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	})
	if err != nil {
		writeOrgError(w, err)
		return
	}

	response := make([]InvitationResponse, len(invitations))
	for i := range invitations {
		response[i] = invitationToResponse(&invitations[i], false)
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Resend handles POST /api/v1/invitations/:id/resend
func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	invitationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid invitation ID"})
		return
	}

	invitation, err := h.orgService.Resend(r.Context(), invitationID, userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitationToResponse(invitation, true))
}

// Revoke handles POST /api/v1/invitations/:id/revoke
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	invitationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid invitation ID"})
		return
	}

	invitation, err := h.orgService.Revoke(r.Context(), invitationID, userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitationToResponse(invitation, false))
}

// Accept handles POST /api/v1/invitations/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Token is required"})
		return
	}

	membership, err := h.orgService.Accept(r.Context(), req.Token, userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, membershipToResponse(membership))
}
