package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key = %q", got)
		}

		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "Good morning, Ada." {
			t.Errorf("Text = %q", req.Text)
		}
		if req.ModelID != defaultModel {
			t.Errorf("ModelID = %q", req.ModelID)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	client := New(WithAPIKey("test-key"), WithBaseURL(srv.URL), WithVoice("voice-42"))

	audio, err := client.Synthesize(context.Background(), "Good morning, Ada.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio.Data) != "mp3 bytes" {
		t.Errorf("Data = %q", audio.Data)
	}
	if audio.MIME != "audio/mpeg" {
		t.Errorf("MIME = %q", audio.MIME)
	}
}

func TestSynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":{"message":"Invalid API key","status":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	client := New(WithAPIKey("bad"), WithBaseURL(srv.URL))

	_, err := client.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("Synthesize() expected error")
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %v, want API message surfaced", err)
	}
}
