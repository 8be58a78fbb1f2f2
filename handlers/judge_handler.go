package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crownstage/pageant-system/models"
	"github.com/crownstage/pageant-system/services"
)

type JudgeHandler struct {
	judgeService *services.JudgeService
}

func NewJudgeHandler(js *services.JudgeService) *JudgeHandler {
	return &JudgeHandler{
		judgeService: js,
	}
}

// CreateHandler обрабатывает POST /admin/judges
func (h *JudgeHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Bio   *string `json:"bio"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Name == "" || input.Email == "" {
		badRequestResponse(w, r, errors.New("name and email are required"))
		return
	}

	judge := &models.Judge{
		Name:  input.Name,
		Email: input.Email,
		Bio:   input.Bio,
	}
	if err := h.judgeService.CreateJudge(r.Context(), judge); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"judge": judge}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /judges/{judgeID}
func (h *JudgeHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	judge, err := h.judgeService.GetJudgeByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"judge": judge}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /judges
func (h *JudgeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	query := r.URL.Query()

	if limitStr := query.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		limit = v
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil || v < 0 {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
		offset = v
	}

	judges, err := h.judgeService.ListJudges(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"judges": judges}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /admin/judges/{judgeID}
func (h *JudgeHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	judge, err := h.judgeService.GetJudgeByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Bio   *string `json:"bio"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Name != nil {
		judge.Name = *input.Name
	}
	if input.Email != nil {
		judge.Email = *input.Email
	}
	if input.Bio != nil {
		judge.Bio = input.Bio
	}

	if err := h.judgeService.UpdateJudge(r.Context(), judge); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"judge": judge}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /admin/judges/{judgeID}
func (h *JudgeHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.judgeService.DeleteJudge(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignHandler обрабатывает POST /admin/competitions/{competitionID}/judges/{judgeID}
func (h *JudgeHandler) AssignHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	judgeID, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.judgeService.AssignJudge(r.Context(), judgeID, competitionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnassignHandler обрабатывает DELETE /admin/competitions/{competitionID}/judges/{judgeID}
func (h *JudgeHandler) UnassignHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	judgeID, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.judgeService.UnassignJudge(r.Context(), judgeID, competitionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCompetitionJudgesHandler обрабатывает GET /competitions/{competitionID}/judges
func (h *JudgeHandler) ListCompetitionJudgesHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	judges, err := h.judgeService.ListCompetitionJudges(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"judges": judges}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
