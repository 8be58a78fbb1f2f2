package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crownstage/pageant-system/services"
	"github.com/go-chi/chi/v5"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"competition not found", services.ErrCompetitionNotFound, http.StatusNotFound},
		{"nominee not found", services.ErrNomineeNotFound, http.StatusNotFound},
		{"email conflict", services.ErrUserEmailConflict, http.StatusConflict},
		{"invalid status transition", services.ErrInvalidStatusTransition, http.StatusConflict},
		{"invalid nominee transition", services.ErrInvalidNomineeTransition, http.StatusConflict},
		{"warn unacknowledged", services.ErrWarnUnacknowledged, http.StatusUnprocessableEntity},
		{"field locked", services.ErrFieldLocked, http.StatusBadRequest},
		{"prize pool below minimum", services.ErrPrizePoolBelowMinimum, http.StatusBadRequest},
		{"manual votes disabled", services.ErrManualVotesDisabled, http.StatusBadRequest},
		{"not votable", services.ErrCompetitionNotVotable, http.StatusBadRequest},
		{"invalid credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden},
		{"unknown error", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(w, r, tc.err)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"empty body", ``, true},
		{"unknown field", `{"name":"x","extra":1}`, true},
		{"two json values", `{"name":"x"}{"name":"y"}`, true},
		{"malformed", `{"name":`, true},
		{"wrong type", `{"name":42}`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst payload
			err := readJSON(w, r, &dst)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func requestWithURLParam(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetIDFromURL(t *testing.T) {
	cases := []struct {
		name    string
		param   string
		value   string
		wantID  int
		wantErr bool
	}{
		{"valid", "competitionID", "7", 7, false},
		{"fallback to id", "id", "3", 3, false},
		{"not a number", "competitionID", "abc", 0, true},
		{"zero", "competitionID", "0", 0, true},
		{"negative", "competitionID", "-5", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := requestWithURLParam(tc.param, tc.value)
			id, err := getIDFromURL(r, "competitionID")
			if tc.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.wantID {
				t.Errorf("id = %d, want %d", id, tc.wantID)
			}
		})
	}
}
