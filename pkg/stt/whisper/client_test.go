package whisper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "fake audio bytes" {
			t.Errorf("audio payload = %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" hello world ","language":"english","duration":1.5}`))
	}))
	defer srv.Close()

	client := New(WithAPIKey("test-key"), WithBaseURL(srv.URL))

	transcript, err := client.Transcribe(context.Background(), strings.NewReader("fake audio bytes"), "clip.webm")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if transcript.Text != "hello world" {
		t.Errorf("Text = %q, want trimmed %q", transcript.Text, "hello world")
	}
	if transcript.Language != "english" {
		t.Errorf("Language = %q", transcript.Language)
	}
	if transcript.Duration != 1.5 {
		t.Errorf("Duration = %v", transcript.Duration)
	}
}

func TestTranscribe_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := New(WithAPIKey("bad-key"), WithBaseURL(srv.URL))

	_, err := client.Transcribe(context.Background(), strings.NewReader("x"), "clip.webm")
	if err == nil {
		t.Fatal("Transcribe() expected error")
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("error = %v, want API message surfaced", err)
	}
}

func TestTranscribe_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	client := New(WithBaseURL(srv.URL))

	_, err := client.Transcribe(context.Background(), strings.NewReader("x"), "clip.webm")
	if err == nil {
		t.Fatal("Transcribe() expected error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status surfaced", err)
	}
}
