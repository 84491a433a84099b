package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Transcendigos/tscd-main-sub000/middleware"
	"github.com/Transcendigos/tscd-main-sub000/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type createMatchInput struct {
	OpponentID int `json:"opponent_id"`
}

// CreateHandler handles POST /matches: a direct invite match.
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create match")
		return
	}

	var input createMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.OpponentID <= 0 {
		badRequestResponse(w, r, errors.New("opponent_id is required"))
		return
	}

	session, err := h.matchService.CreateMatch(r.Context(), currentUserID, input.OpponentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// QuickPlayHandler handles POST /matches/quickplay.
func (h *MatchHandler) QuickPlayHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required for quick play")
		return
	}

	result, err := h.matchService.QuickPlay(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	if err := writeJSON(w, status, jsonResponse{"quickplay": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelQuickPlayHandler handles DELETE /matches/quickplay.
func (h *MatchHandler) CancelQuickPlayHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.matchService.CancelQuickPlay(r.Context(), currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartTournamentMatchHandler handles POST /matches/{matchID}/start.
func (h *MatchHandler) StartTournamentMatchHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to start match")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.matchService.StartTournamentMatch(r.Context(), matchID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AbortHandler handles DELETE /matches/sessions/{sessionID}.
func (h *MatchHandler) AbortHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to abort match")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		badRequestResponse(w, r, errors.New("missing sessionID URL parameter"))
		return
	}

	if err := h.matchService.AbortSession(r.Context(), sessionID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HistoryHandler handles GET /history.
func (h *MatchHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to view history")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		limit = parsed
	}

	records, err := h.matchService.History(r.Context(), currentUserID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
