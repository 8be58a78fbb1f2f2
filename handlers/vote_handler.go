package handlers

import (
	"errors"
	"net/http"

	"github.com/crownstage/pageant-system/pricing"
	"github.com/crownstage/pageant-system/services"
)

type VoteHandler struct {
	voteService *services.VoteService
}

func NewVoteHandler(vs *services.VoteService) *VoteHandler {
	return &VoteHandler{
		voteService: vs,
	}
}

func mapVoteServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidVoteCount):
		badRequestResponse(w, r, err)
	default:
		mapServiceErrorToHTTP(w, r, err)
	}
}

// PurchaseHandler обрабатывает POST /competitions/{competitionID}/contestants/{contestantID}/votes
// Публичный маршрут: голосовать может любой зритель во время фазы voting.
func (h *VoteHandler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	contestantID, err := getIDFromURL(r, "contestantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Count int `json:"count"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.voteService.PurchaseVotes(r.Context(), competitionID, contestantID, input.Count)
	if err != nil {
		mapVoteServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"purchase": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ManualVotesHandler обрабатывает POST /admin/competitions/{competitionID}/contestants/{contestantID}/manual-votes
func (h *VoteHandler) ManualVotesHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	contestantID, err := getIDFromURL(r, "contestantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Count int `json:"count"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	totalVotes, err := h.voteService.AddManualVotes(r.Context(), competitionID, contestantID, input.Count)
	if err != nil {
		mapVoteServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"total_votes": totalVotes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// QuoteHandler обрабатывает GET /competitions/{competitionID}/votes/quote?count=N
func (h *VoteHandler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := getQueryInt(r, "count")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.voteService.QuoteVotes(r.Context(), competitionID, count)
	if err != nil {
		mapVoteServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"quote": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PrizeSummaryHandler обрабатывает GET /competitions/{competitionID}/prize-summary
func (h *VoteHandler) PrizeSummaryHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	breakdown, err := h.voteService.PrizeSummary(r.Context(), competitionID)
	if err != nil {
		mapVoteServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prize_pool": breakdown}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
