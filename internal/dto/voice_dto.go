package dto

// Stage outcome tags for one voice turn. Each stage fails independently;
// only transcription failure ends the turn early.
const (
	StageOK       = "ok"
	StageFallback = "fallback"
	StageSkipped  = "skipped"
	StageFatal    = "fatal"
)

// Error kinds reported on a degraded turn.
const (
	VoiceErrorNone          = ""
	VoiceErrorNoAudio       = "no_audio"
	VoiceErrorTooShort      = "too_short"
	VoiceErrorTranscription = "transcription_failed"
	VoiceErrorLowSignal     = "low_signal"
)

type ConversationTurnDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// VoiceTurnResponse is produced once per orchestrator invocation and handed
// straight back to the caller.
type VoiceTurnResponse struct {
	Transcript string            `json:"transcript"`
	ReplyText  string            `json:"reply_text"`
	ReplyAudio []byte            `json:"reply_audio,omitempty"` // base64 in JSON
	AudioMIME  string            `json:"audio_mime,omitempty"`
	Stages     map[string]string `json:"stages"`
	ErrorKind  string            `json:"error_kind,omitempty"`
}
