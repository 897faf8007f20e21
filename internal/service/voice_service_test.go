package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinhai-collab/Mira-sub001/internal/constant"
	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/pkg/llm"
	"github.com/kinhai-collab/Mira-sub001/pkg/stt"
	"github.com/kinhai-collab/Mira-sub001/pkg/tts"
)

type stubSTT struct {
	text     string
	failures int
	calls    int
}

func (s *stubSTT) Transcribe(_ context.Context, audio io.Reader, _ string) (*stt.Transcript, error) {
	s.calls++
	io.ReadAll(audio)
	if s.calls <= s.failures {
		return nil, errors.New("stt unavailable")
	}
	return &stt.Transcript{Text: s.text}, nil
}

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return s.reply, s.err
}

type stubTTS struct {
	err   error
	calls int
}

func (s *stubTTS) Synthesize(_ context.Context, _ string) (*tts.Audio, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &tts.Audio{Data: []byte("mp3-bytes"), MIME: "audio/mpeg"}, nil
}

func newTestVoiceService(t *testing.T, sttP stt.Provider, llmP llm.LLMProvider, ttsP tts.Provider) IVoiceService {
	t.Helper()
	return NewVoiceService(sttP, llmP, ttsP, VoiceLimits{
		MinAudioBytes:      100,
		MinTranscriptChars: 4,
		HistoryLimit:       10,
	}, nil, testLogger(t))
}

func longAudio() []byte {
	return make([]byte, 200)
}

func TestCompleteTurn_EmptyAudio(t *testing.T) {
	svc := newTestVoiceService(t, &stubSTT{}, &stubLLM{}, &stubTTS{})

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), nil, nil)
	require.ErrorIs(t, err, ErrNoAudio)
	require.NotNil(t, res)
	assert.Equal(t, dto.StageFatal, res.Stages["validate"])
	assert.Equal(t, dto.VoiceErrorNoAudio, res.ErrorKind)
}

func TestCompleteTurn_TooShortIsNotAnError(t *testing.T) {
	sttP := &stubSTT{}
	svc := newTestVoiceService(t, sttP, &stubLLM{}, &stubTTS{})

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), []byte("tap"), nil)
	require.NoError(t, err)
	assert.Equal(t, dto.StageFallback, res.Stages["validate"])
	assert.Equal(t, dto.VoiceErrorTooShort, res.ErrorKind)
	assert.Empty(t, res.Transcript)

	// The ladder never ran.
	assert.Zero(t, sttP.calls)
	assert.Equal(t, dto.StageSkipped, res.Stages["transcribe"])
}

func TestCompleteTurn_HappyPath(t *testing.T) {
	sttP := &stubSTT{text: "what is on my calendar today"}
	llmP := &stubLLM{reply: "You have two meetings."}
	ttsP := &stubTTS{}
	svc := newTestVoiceService(t, sttP, llmP, ttsP)

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), nil)
	require.NoError(t, err)

	assert.Equal(t, "what is on my calendar today", res.Transcript)
	assert.Equal(t, "You have two meetings.", res.ReplyText)
	assert.Equal(t, []byte("mp3-bytes"), res.ReplyAudio)
	assert.Equal(t, "audio/mpeg", res.AudioMIME)
	assert.Empty(t, res.ErrorKind)

	for stage, state := range res.Stages {
		assert.Equal(t, dto.StageOK, state, "stage %s", stage)
	}
}

func TestCompleteTurn_TranscriptionRetriesOnce(t *testing.T) {
	sttP := &stubSTT{text: "hello mira how are you", failures: 1}
	svc := newTestVoiceService(t, sttP, &stubLLM{reply: "Doing well."}, &stubTTS{})

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sttP.calls)
	assert.Equal(t, dto.StageOK, res.Stages["transcribe"])
	assert.Equal(t, "hello mira how are you", res.Transcript)
}

func TestCompleteTurn_TranscriptionFailureIsTerminal(t *testing.T) {
	sttP := &stubSTT{failures: 2}
	llmP := &stubLLM{reply: "should not be called"}
	svc := newTestVoiceService(t, sttP, llmP, &stubTTS{})

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sttP.calls)
	assert.Equal(t, dto.StageFatal, res.Stages["transcribe"])
	assert.Equal(t, dto.VoiceErrorTranscription, res.ErrorKind)
	assert.Equal(t, constant.TranscriptionApology, res.ReplyText)

	// Later stages never ran.
	assert.Zero(t, llmP.calls)
	assert.Equal(t, dto.StageSkipped, res.Stages["generate"])
	assert.Equal(t, dto.StageSkipped, res.Stages["synthesize"])
}

func TestCompleteTurn_FillerOnlyTranscriptIsFiltered(t *testing.T) {
	sttP := &stubSTT{text: "um uh hmm"}
	llmP := &stubLLM{reply: "should not be called"}
	svc := newTestVoiceService(t, sttP, llmP, &stubTTS{})

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), nil)
	require.NoError(t, err)

	assert.Equal(t, dto.StageFallback, res.Stages["filter"])
	assert.Equal(t, dto.VoiceErrorLowSignal, res.ErrorKind)
	assert.Equal(t, constant.DidNotCatchReply, res.ReplyText)
	assert.Zero(t, llmP.calls)
}

func TestCompleteTurn_CompletionFailureSubstitutesApology(t *testing.T) {
	sttP := &stubSTT{text: "tell me about my day"}
	llmP := &stubLLM{err: errors.New("model overloaded")}
	ttsP := &stubTTS{}
	svc := newTestVoiceService(t, sttP, llmP, ttsP)

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), nil)
	require.NoError(t, err)

	assert.Equal(t, dto.StageFallback, res.Stages["generate"])
	assert.Equal(t, constant.CompletionApology, res.ReplyText)

	// The apology is still voiced.
	assert.Equal(t, 1, ttsP.calls)
	assert.Equal(t, dto.StageOK, res.Stages["synthesize"])
	assert.NotNil(t, res.ReplyAudio)
}

func TestCompleteTurn_SynthesisFailureKeepsText(t *testing.T) {
	sttP := &stubSTT{text: "what time is it"}
	svc := newTestVoiceService(t, sttP, &stubLLM{reply: "It is noon."}, &stubTTS{err: errors.New("tts down")})

	res, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), nil)
	require.NoError(t, err)

	assert.Equal(t, dto.StageFallback, res.Stages["synthesize"])
	assert.Equal(t, "It is noon.", res.ReplyText)
	assert.Nil(t, res.ReplyAudio)
	assert.Empty(t, res.AudioMIME)
}

func TestCompleteTurn_HistoryIsBounded(t *testing.T) {
	var captured []llm.Message
	llmP := &capturingLLM{reply: "ok", captured: &captured}
	svc := newTestVoiceService(t, &stubSTT{text: "and what about tomorrow"}, llmP, &stubTTS{})

	history := make([]entity.ConversationTurn, 0, 25)
	for i := 0; i < 25; i++ {
		history = append(history, entity.ConversationTurn{Role: "user", Content: "turn"})
	}

	_, err := svc.CompleteTurn(context.Background(), uuid.New(), longAudio(), history)
	require.NoError(t, err)

	// system prompt + 10 history turns + current utterance
	require.Len(t, captured, 12)
	assert.Equal(t, "system", captured[0].Role)
	assert.Equal(t, "and what about tomorrow", captured[len(captured)-1].Content)
}

type capturingLLM struct {
	reply    string
	captured *[]llm.Message
}

func (c *capturingLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	*c.captured = history
	return c.reply, nil
}

func (c *capturingLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return c.reply, nil
}

func TestSpeak_FailureReturnsNil(t *testing.T) {
	svc := newTestVoiceService(t, &stubSTT{}, &stubLLM{}, &stubTTS{err: errors.New("down")})

	audio, mime := svc.Speak(context.Background(), "hello")
	assert.Nil(t, audio)
	assert.Empty(t, mime)
}
