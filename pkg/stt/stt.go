// Package stt defines the speech-to-text provider contract.
package stt

import (
	"context"
	"io"
)

// Transcript is the recognized text for one audio clip.
type Transcript struct {
	Text     string
	Language string
	Duration float64
}

// Provider converts a single captured utterance into text. Implementations
// must be safe for concurrent use.
type Provider interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcript, error)
}
