package handlers

import (
	"errors"
	"net/http"

	"github.com/crownstage/pageant-system/services"
)

type NomineeHandler struct {
	nomineeService *services.NomineeService
}

func NewNomineeHandler(ns *services.NomineeService) *NomineeHandler {
	return &NomineeHandler{
		nomineeService: ns,
	}
}

// SubmitHandler обрабатывает POST /competitions/{competitionID}/nominees
// Публичный маршрут: номинировать может кто угодно, пока идёт номинация.
func (h *NomineeHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitNominationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CompetitionID = competitionID

	if input.Name == "" || input.Email == "" {
		badRequestResponse(w, r, errors.New("name and email are required"))
		return
	}

	nominee, err := h.nomineeService.SubmitNomination(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"nominee": nominee}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListActiveHandler обрабатывает GET /competitions/{competitionID}/nominees
// Возвращает только активные заявки (без approved и rejected).
func (h *NomineeHandler) ListActiveHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	nominees, err := h.nomineeService.ListActiveNominees(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"nominees": nominees}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /nominees/{nomineeID}
func (h *NomineeHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "nomineeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	nominee, err := h.nomineeService.GetNomineeByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"nominee": nominee}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveHandler обрабатывает POST /nominees/{nomineeID}/approve
func (h *NomineeHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "nomineeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	nominee, err := h.nomineeService.Approve(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"nominee": nominee}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectHandler обрабатывает POST /nominees/{nomineeID}/reject
func (h *NomineeHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "nomineeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	nominee, err := h.nomineeService.Reject(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"nominee": nominee}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConvertHandler обрабатывает POST /nominees/{nomineeID}/convert
// Идемпотентен: повторный вызов возвращает уже созданного участника.
func (h *NomineeHandler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "nomineeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contestant, err := h.nomineeService.Convert(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contestant": contestant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteProfileHandler обрабатывает PUT /nominees/{nomineeID}/profile
func (h *NomineeHandler) CompleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "nomineeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CompleteProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	nominee, err := h.nomineeService.CompleteProfile(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"nominee": nominee}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteProfileByTokenHandler обрабатывает PUT /nominees/claim
// Публичный маршрут: номинант заполняет анкету по ссылке из письма.
func (h *NomineeHandler) CompleteProfileByTokenHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		badRequestResponse(w, r, errors.New("invite token is required"))
		return
	}

	var input services.CompleteProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	nominee, err := h.nomineeService.CompleteProfileByToken(r.Context(), token, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"nominee": nominee}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResendInviteHandler обрабатывает POST /nominees/{nomineeID}/resend-invite
func (h *NomineeHandler) ResendInviteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "nomineeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.nomineeService.ResendInvite(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
