package entity

// Session is the access/refresh token pair held for one (user, provider)
// pair. Expiry is always derived from the access token's exp claim, it is
// never tracked as a separate field.
type Session struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// UserProfile is the cached copy of the upstream profile. Profile data
// embedded in tokens is distrusted after login because it can be stale; a
// fresh fetch always supersedes this copy.
type UserProfile struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Provider    *string `json:"provider,omitempty"`
}

// ConversationTurn is one exchange in a transient voice/chat history. Turns
// live in memory for the duration of an interaction and are never persisted.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}
