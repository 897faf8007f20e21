// Package tts defines the text-to-speech provider contract.
package tts

import "context"

// Audio is one synthesized clip.
type Audio struct {
	Data []byte
	MIME string
}

// Provider turns reply text into playable audio. Implementations must be
// safe for concurrent use.
type Provider interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}
