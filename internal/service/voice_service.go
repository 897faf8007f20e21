package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/kinhai-collab/Mira-sub001/internal/constant"
	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/pkg/bus"
	"github.com/kinhai-collab/Mira-sub001/pkg/events"
	"github.com/kinhai-collab/Mira-sub001/pkg/llm"
	"github.com/kinhai-collab/Mira-sub001/pkg/stt"
	"github.com/kinhai-collab/Mira-sub001/pkg/tts"
)

// ErrNoAudio is returned when a turn arrives without an audio payload.
var ErrNoAudio = errors.New("no audio payload attached")

// VoiceLimits are the thresholds that gate the pipeline before money is
// spent on the model calls.
type VoiceLimits struct {
	MinAudioBytes      int
	MinTranscriptChars int
	HistoryLimit       int
}

// IVoiceService converts one captured utterance plus conversation history
// into a spoken reply. The ladder degrades per stage: losing TTS still
// returns text, losing the LLM still returns an apology, only losing
// transcription ends the turn, because no reply can be grounded without
// recognized text.
type IVoiceService interface {
	CompleteTurn(ctx context.Context, userId uuid.UUID, audio []byte, history []entity.ConversationTurn) (*dto.VoiceTurnResponse, error)

	// Speak synthesizes arbitrary assistant text (used by the morning brief).
	// A synthesis failure yields nil audio, never an error.
	Speak(ctx context.Context, text string) ([]byte, string)
}

type voiceService struct {
	sttProvider stt.Provider
	llmProvider llm.LLMProvider
	ttsProvider tts.Provider
	limits      VoiceLimits
	eventBus    *bus.Bus
	log         logger.ILogger
}

func NewVoiceService(
	sttProvider stt.Provider,
	llmProvider llm.LLMProvider,
	ttsProvider tts.Provider,
	limits VoiceLimits,
	eventBus *bus.Bus,
	log logger.ILogger,
) IVoiceService {
	if limits.MinAudioBytes <= 0 {
		limits.MinAudioBytes = 4000
	}
	if limits.MinTranscriptChars <= 0 {
		limits.MinTranscriptChars = 4
	}
	if limits.HistoryLimit <= 0 {
		limits.HistoryLimit = 10
	}
	return &voiceService{
		sttProvider: sttProvider,
		llmProvider: llmProvider,
		ttsProvider: ttsProvider,
		limits:      limits,
		eventBus:    eventBus,
		log:         log,
	}
}

func (s *voiceService) CompleteTurn(ctx context.Context, userId uuid.UUID, audio []byte, history []entity.ConversationTurn) (*dto.VoiceTurnResponse, error) {
	result := &dto.VoiceTurnResponse{
		Stages: map[string]string{
			"validate":   dto.StageSkipped,
			"transcribe": dto.StageSkipped,
			"filter":     dto.StageSkipped,
			"generate":   dto.StageSkipped,
			"synthesize": dto.StageSkipped,
		},
	}

	// Stage 1: Validate
	if len(audio) == 0 {
		result.Stages["validate"] = dto.StageFatal
		result.ErrorKind = dto.VoiceErrorNoAudio
		return result, ErrNoAudio
	}
	if len(audio) < s.limits.MinAudioBytes {
		// Silence or a stray tap on the mic button. Not an error.
		result.Stages["validate"] = dto.StageFallback
		result.ErrorKind = dto.VoiceErrorTooShort
		return result, nil
	}
	result.Stages["validate"] = dto.StageOK

	// The audio payload goes through a scratch file so a retried transcription
	// re-reads identical bytes. Released on every exit path.
	scratch, err := os.CreateTemp("", "mira-voice-*.audio")
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	defer func() {
		scratch.Close()
		os.Remove(scratch.Name())
	}()
	if _, err := scratch.Write(audio); err != nil {
		return nil, fmt.Errorf("write scratch file: %w", err)
	}

	// Stage 2: Transcribe (one retry; failure here is terminal)
	transcript, err := s.transcribeWithRetry(ctx, scratch)
	if err != nil {
		s.log.Warn("VoiceService", "Transcription failed twice, ending turn", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		result.Stages["transcribe"] = dto.StageFatal
		result.ReplyText = constant.TranscriptionApology
		result.ErrorKind = dto.VoiceErrorTranscription
		return result, nil
	}
	result.Stages["transcribe"] = dto.StageOK
	result.Transcript = transcript

	// Stage 3: Filter low-signal transcripts before paying for a completion
	if s.isLowSignal(transcript) {
		result.Stages["filter"] = dto.StageFallback
		result.ReplyText = constant.DidNotCatchReply
		result.ErrorKind = dto.VoiceErrorLowSignal
		return result, nil
	}
	result.Stages["filter"] = dto.StageOK

	// Stage 4: Generate reply (failure substitutes an apology, turn continues)
	reply, err := s.generateReply(ctx, transcript, history)
	if err != nil {
		s.log.Warn("VoiceService", "Completion failed, substituting apology", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		result.Stages["generate"] = dto.StageFallback
		reply = constant.CompletionApology
	} else {
		result.Stages["generate"] = dto.StageOK
	}
	result.ReplyText = reply

	// Stage 5: Synthesize speech (failure returns text without audio)
	audioData, mime := s.Speak(ctx, reply)
	if audioData == nil {
		result.Stages["synthesize"] = dto.StageFallback
	} else {
		result.Stages["synthesize"] = dto.StageOK
		result.ReplyAudio = audioData
		result.AudioMIME = mime
	}

	if s.eventBus != nil {
		event := events.NewVoiceTurnCompleted(userId.String(), len(transcript), audioData != nil)
		if err := s.eventBus.Publish(event); err != nil {
			s.log.Warn("VoiceService", "Failed to publish voice turn event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return result, nil
}

func (s *voiceService) transcribeWithRetry(ctx context.Context, scratch *os.File) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if _, err := scratch.Seek(0, 0); err != nil {
			return "", fmt.Errorf("rewind scratch file: %w", err)
		}
		transcript, err := s.sttProvider.Transcribe(ctx, scratch, "utterance.audio")
		if err == nil {
			return strings.TrimSpace(transcript.Text), nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (s *voiceService) isLowSignal(transcript string) bool {
	if len(transcript) < s.limits.MinTranscriptChars {
		return true
	}
	words := strings.Fields(strings.ToLower(transcript))
	for _, w := range words {
		if !constant.FillerWords[strings.Trim(w, ".,!?")] {
			return false
		}
	}
	return true
}

func (s *voiceService) generateReply(ctx context.Context, transcript string, history []entity.ConversationTurn) (string, error) {
	if len(history) > s.limits.HistoryLimit {
		history = history[len(history)-s.limits.HistoryLimit:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: constant.SystemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: transcript})

	return s.llmProvider.Chat(ctx, messages, llm.WithTemperature(0.6))
}

func (s *voiceService) Speak(ctx context.Context, text string) ([]byte, string) {
	audio, err := s.ttsProvider.Synthesize(ctx, text)
	if err != nil {
		s.log.Warn("VoiceService", "Synthesis failed, returning text only", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ""
	}
	return audio.Data, audio.MIME
}
