package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/middlewares"
)

type request struct {
	method  string
	pattern string
	target  string
	body    any
	userID  uuid.UUID
	key     string
}

// serve routes req through a chi router so URL params resolve.
func serve(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch b := req.body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		if err := json.NewEncoder(&body).Encode(b); err != nil {
			t.Fatal(err)
		}
	}

	r := httptest.NewRequest(req.method, req.target, &body)
	if req.key != "" {
		r.Header.Set(IdempotencyKeyHeader, req.key)
	}
	if req.userID != uuid.Nil {
		r = r.WithContext(middlewares.WithUserID(r.Context(), req.userID))
	}

	router := chi.NewRouter()
	router.MethodFunc(req.method, req.pattern, h)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, r)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp.Error
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
