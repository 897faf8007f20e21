package dto

import "time"

// View-models for the dashboard cards. Every fetch wrapper returns the zeroed
// struct on any upstream failure so the UI always has something to render.

type EmailSummary struct {
	TotalImportant int      `json:"total_important"`
	Unread         int      `json:"unread"`
	TopSenders     []string `json:"top_senders"`
}

type CalendarEvent struct {
	Id       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
	AllDay   bool      `json:"all_day"`
}

type TaskSummary struct {
	DueToday  int `json:"due_today"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
}

type Reminder struct {
	Id    string    `json:"id"`
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

type DashboardSummary struct {
	Emails    EmailSummary    `json:"emails"`
	Events    []CalendarEvent `json:"events"`
	Tasks     TaskSummary     `json:"tasks"`
	Reminders []Reminder      `json:"reminders"`
}

type CreateEventRequest struct {
	Title    string    `json:"title" validate:"required,min=1"`
	Start    time.Time `json:"start" validate:"required"`
	End      time.Time `json:"end" validate:"required,gtfield=Start"`
	Location string    `json:"location"`
	AllDay   bool      `json:"all_day"`
}

type MorningBriefResponse struct {
	Text  string `json:"text"`
	Audio []byte `json:"audio,omitempty"` // base64 in JSON
	MIME  string `json:"mime,omitempty"`
}
