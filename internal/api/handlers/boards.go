package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/api/dto"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/boards"
	"github.com/hugh/boardstack/internal/database/models"
)

type BoardHandler struct {
	boardService *boards.Service
}

func NewBoardHandler(boardService *boards.Service) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

// CreateBoardRequest represents the request to create a board
type CreateBoardRequest struct {
	Title string `json:"title"`
}

// BoardResponse represents a board in API responses
type BoardResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	OrgID     string `json:"organization_id"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

func boardToResponse(b *models.Board) BoardResponse {
	return BoardResponse{
		ID:        b.ID.String(),
		Title:     b.Title,
		OrgID:     b.OrganizationID.String(),
		CreatedBy: b.CreatedBy.String(),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

func writeBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, boards.ErrInvalidTitle):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, boards.ErrBoardNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Board not found"})
	default:
		writeOrgError(w, err)
	}
}

// Create handles POST /api/v1/orgs/:id/boards
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	var req CreateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	board, err := h.boardService.Create(r.Context(), orgID, req.Title, userID)
	if err != nil {
		writeBoardError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, boardToResponse(board))
}

// List handles GET /api/v1/orgs/:id/boards
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	list, err := h.boardService.List(r.Context(), orgID, userID)
	if err != nil {
		writeBoardError(w, err)
		return
	}

	response := make([]BoardResponse, len(list))
	for i := range list {
		response[i] = boardToResponse(&list[i])
	}

	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/boards/:id
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	boardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid board ID"})
		return
	}

	board, err := h.boardService.Get(r.Context(), boardID, userID)
	if err != nil {
		writeBoardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, boardToResponse(board))
}

// Delete handles DELETE /api/v1/boards/:id
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	boardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid board ID"})
		return
	}

	if err := h.boardService.Delete(r.Context(), boardID, userID); err != nil {
		writeBoardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Board deleted"})
}
