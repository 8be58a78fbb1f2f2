package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/crownstage/pageant-system/services"
)

type ContestantHandler struct {
	contestantService *services.ContestantService
}

func NewContestantHandler(cs *services.ContestantService) *ContestantHandler {
	return &ContestantHandler{
		contestantService: cs,
	}
}

// ListHandler обрабатывает GET /competitions/{competitionID}/contestants
func (h *ContestantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contestants, err := h.contestantService.ListByCompetition(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contestants": contestants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /contestants/{contestantID}
func (h *ContestantHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contestant, err := h.contestantService.GetContestantByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contestant": contestant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadPhotoHandler обрабатывает POST /contestants/{contestantID}/photo
func (h *ContestantHandler) UploadPhotoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("photo") // "photo" - имя поля в форме
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get photo file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for photo"))
		return
	}

	contestant, err := h.contestantService.UploadPhoto(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contestant": contestant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetVotesHandler обрабатывает PUT /admin/contestants/{contestantID}/votes
func (h *ContestantHandler) SetVotesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Votes int `json:"votes"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contestant, err := h.contestantService.SetVotes(r.Context(), id, input.Votes)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contestant": contestant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /admin/contestants/{contestantID}
func (h *ContestantHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.contestantService.DeleteContestant(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
