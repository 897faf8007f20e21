package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used across the service.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes. USER_UPDATED replaces what the web client used to do with
// ad-hoc DOM events: any component interested in fresher profile data
// subscribes instead of being called back directly.
const (
	TypeUserLogin          = "USER_LOGIN"
	TypeUserUpdated        = "USER_UPDATED"
	TypeAccountConnected   = "ACCOUNT_CONNECTED"
	TypeSessionRefreshed   = "SESSION_REFRESHED"
	TypeVoiceTurnCompleted = "VOICE_TURN_COMPLETED"
)

func NewUserUpdated(userID string) BaseEvent {
	return BaseEvent{
		Type:       TypeUserUpdated,
		Data:       map[string]interface{}{"user_id": userID},
		OccurredAt: time.Now(),
	}
}

func NewAccountConnected(userID, provider, email string) BaseEvent {
	return BaseEvent{
		Type: TypeAccountConnected,
		Data: map[string]interface{}{
			"user_id":  userID,
			"provider": provider,
			"email":    email,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionRefreshed(userID, provider string) BaseEvent {
	return BaseEvent{
		Type: TypeSessionRefreshed,
		Data: map[string]interface{}{
			"user_id":  userID,
			"provider": provider,
		},
		OccurredAt: time.Now(),
	}
}

func NewVoiceTurnCompleted(userID string, transcriptLen int, hadAudio bool) BaseEvent {
	return BaseEvent{
		Type: TypeVoiceTurnCompleted,
		Data: map[string]interface{}{
			"user_id":        userID,
			"transcript_len": transcriptLen,
			"had_audio":      hadAudio,
		},
		OccurredAt: time.Now(),
	}
}
