package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/models"
	"markov_occupancy/internal/service"
)

func TestModelHandlers_RequireAuth(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	m := &mockModels{}
	r := newTestRouter(&service.Service{Authorization: auth, Models: m})

	if w := doRequest(r, http.MethodGet, "/api/v1/model", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("GET without auth: %d", w.Code)
	}
	if w := doRequest(r, http.MethodPut, "/api/v1/model", `{"states":["a"],"holding_times":{"a":1}}`, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("PUT without auth: %d", w.Code)
	}
	if m.replaced != 0 {
		t.Fatalf("Replace must not run without auth")
	}
}

func TestModelHandlers_GetAndPut(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	m := &mockModels{model: models.Model{
		ID:           1,
		States:       []string{"sunny", "rainy"},
		Transitions:  map[string]map[string]float64{"sunny": {"rainy": 1}, "rainy": {"sunny": 1}},
		HoldingTimes: map[string]float64{"sunny": 1, "rainy": 2},
	}}
	r := newTestRouter(&service.Service{Authorization: auth, Models: m})

	w := doRequest(r, http.MethodGet, "/api/v1/model", "", authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("GET status=%d body=%s", w.Code, w.Body.String())
	}
	var got models.Model
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.States) != 2 || got.HoldingTimes["rainy"] != 2 || got.Transitions["sunny"]["rainy"] != 1 {
		t.Fatalf("unexpected model: %+v", got)
	}

	body := `{"states":["on","off"],"transitions":{"on":{"off":1}},"holding_times":{"on":5,"off":"2"}}`
	w = doRequest(r, http.MethodPut, "/api/v1/model", body, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status=%d body=%s", w.Code, w.Body.String())
	}
	if m.replaced != 1 || len(m.lastParams.States) != 2 || m.lastParams.HoldingTimes["off"] != "2" {
		t.Fatalf("unexpected Replace params: %+v", m.lastParams)
	}
	if auth.lastParseToken != "valid" {
		t.Fatalf("token not checked: %q", auth.lastParseToken)
	}
}

func TestModelHandlers_PutErrors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		replaceErr error
		wantCode   int
		wantCalls  int
	}{
		{"missing states", `{"holding_times":{"a":1}}`, nil, http.StatusBadRequest, 0},
		{"empty states", `{"states":[],"holding_times":{"a":1}}`, nil, http.StatusBadRequest, 0},
		{"missing holding times", `{"states":["a"]}`, nil, http.StatusBadRequest, 0},
		{"engine rejects", `{"states":["a"],"holding_times":{"a":-1}}`,
			fmt.Errorf("%w: holding time for \"a\" must be a positive number", engine.ErrValidation), http.StatusBadRequest, 1},
		{"does not converge", `{"states":["a"],"holding_times":{"a":1}}`,
			fmt.Errorf("%w: no fixed point", engine.ErrConvergence), http.StatusUnprocessableEntity, 1},
		{"store fails", `{"states":["a"],"holding_times":{"a":1}}`,
			fmt.Errorf("save model: disk full"), http.StatusInternalServerError, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockModels{replaceErr: tc.replaceErr}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Models: m})

			w := doRequest(r, http.MethodPut, "/api/v1/model", tc.body, authHeader("valid"))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			decodeError(t, w)
			if m.replaced != tc.wantCalls {
				t.Fatalf("Replace calls = %d, want %d", m.replaced, tc.wantCalls)
			}
		})
	}
}
