package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-detection/voice"
)

// byteRepeater streams the same byte forever, so oversized-body tests do
// not have to materialize the payload in memory.
type byteRepeater byte

func (b byteRepeater) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}

func TestDetectHandlerRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	handler := newDetectHandler(voice.NewEngine(), nil)

	// A JSON prefix followed by a base64-looking run that never ends within
	// the request cap.
	body := io.MultiReader(
		strings.NewReader(`{"audio":"`),
		io.LimitReader(byteRepeater('A'), maxRequestBytes+1024),
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for an oversized body, got %d", rec.Code)
	}
}

func TestDetectHandlerRequiresExactlyOneSource(t *testing.T) {
	t.Parallel()

	handler := newDetectHandler(voice.NewEngine(), nil)

	for _, body := range []string{
		`{}`,
		`{"audio_url":"https://example.com/a.wav","audio":"QUJD"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected status 400, got %d", body, rec.Code)
		}
	}
}
