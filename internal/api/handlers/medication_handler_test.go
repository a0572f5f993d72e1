package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/clinicportal/internal/api/handlers"
	"github.com/zatekoja/clinicportal/internal/nlp"
)

type parserFunc func(string) nlp.ParseResult

func (f parserFunc) Parse(_ context.Context, transcript string) nlp.ParseResult {
	return f(transcript)
}

func realParser() handlers.MedicationParser {
	p := nlp.NewParser(nil, nil)
	return parserFunc(p.Parse)
}

func TestParseMedication_JSON(t *testing.T) {
	h := handlers.NewMedicationHandler(realParser())

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/medication",
		strings.NewReader(`{"transcript":"take amoxicillin 500mg three times a day for seven days"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ParseMedication(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"medication":"amoxicillin 500mg","dosage":"3 times a day","days":"7 days"}`, rec.Body.String())
}

func TestParseMedication_Form(t *testing.T) {
	h := handlers.NewMedicationHandler(realParser())

	form := url.Values{"transcript": {"apply cream every 6 hours"}}
	req := httptest.NewRequest(http.MethodPost, "/api/nlp/medication", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ParseMedication(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"medication":"apply cream","dosage":"every 6 hours","days":""}`, rec.Body.String())
}

func TestParseMedication_NoMatchIsStillOK(t *testing.T) {
	h := handlers.NewMedicationHandler(parserFunc(func(string) nlp.ParseResult { return nlp.ParseResult{} }))

	req := httptest.NewRequest(http.MethodPost, "/api/nlp/medication", strings.NewReader(`{"transcript":"..."}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ParseMedication(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"medication":"","dosage":"","days":""}`, rec.Body.String())
}

func TestParseMedication_Errors(t *testing.T) {
	called := false
	h := handlers.NewMedicationHandler(parserFunc(func(string) nlp.ParseResult {
		called = true
		return nlp.ParseResult{}
	}))

	tests := []struct {
		name        string
		contentType string
		body        string
		wantBody    string
	}{
		{"blank json", "application/json", `{"transcript":"   "}`, `{"ok":false,"error":"empty_transcript"}`},
		{"missing field", "application/json", `{}`, `{"ok":false,"error":"empty_transcript"}`},
		{"blank form", "application/x-www-form-urlencoded", `transcript=+`, `{"ok":false,"error":"empty_transcript"}`},
		{"bad json", "application/json", `{"transcript":`, `{"ok":false,"error":"invalid_request"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/nlp/medication", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			h.ParseMedication(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
	assert.False(t, called)
}

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Host = "clinic.example:9000"
	assert.Equal(t, "http://clinic.example:9000", handlers.BaseURL(req, ""))

	req.Header.Set("X-Forwarded-Proto", "https, http")
	assert.Equal(t, "https://clinic.example:9000", handlers.BaseURL(req, ""))

	assert.Equal(t, "https://portal.example", handlers.BaseURL(req, "https://portal.example/"))

	req.Host = ""
	assert.Equal(t, "http://localhost:8080", handlers.BaseURL(req, ""))
}
