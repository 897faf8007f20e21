package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/pkg/briefing"
)

// UpstreamProvider is the session-store provider name for the Mira core API.
const UpstreamProvider = "mira"

// IDashboardService wraps the upstream summary endpoints. Every read returns
// the zeroed view-model on any failure (missing token, non-2xx, malformed
// JSON) so the dashboard always has something to render; only writes surface
// errors.
type IDashboardService interface {
	EmailSummary(ctx context.Context, userId uuid.UUID) dto.EmailSummary
	Events(ctx context.Context, userId uuid.UUID, day time.Time) []dto.CalendarEvent
	TaskSummary(ctx context.Context, userId uuid.UUID) dto.TaskSummary
	Reminders(ctx context.Context, userId uuid.UUID) []dto.Reminder
	Summary(ctx context.Context, userId uuid.UUID) dto.DashboardSummary

	CreateEvent(ctx context.Context, userId uuid.UUID, req *dto.CreateEventRequest) (*dto.CalendarEvent, error)

	MorningBrief(ctx context.Context, userId uuid.UUID, withAudio bool) (*dto.MorningBriefResponse, error)
}

type dashboardService struct {
	baseURL      string
	client       *http.Client
	tokenService ITokenService
	userService  IUserService
	voiceService IVoiceService
	log          logger.ILogger
}

func NewDashboardService(
	baseURL string,
	timeout time.Duration,
	tokenService ITokenService,
	userService IUserService,
	voiceService IVoiceService,
	log logger.ILogger,
) IDashboardService {
	return &dashboardService{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: timeout},
		tokenService: tokenService,
		userService:  userService,
		voiceService: voiceService,
		log:          log,
	}
}

// getJSON fetches an upstream path with a valid bearer token and decodes into
// out. Returns false on any failure; out is left untouched so callers keep
// their zeroed default.
func (s *dashboardService) getJSON(ctx context.Context, userId uuid.UUID, path string, out interface{}) bool {
	token := s.tokenService.GetValidToken(ctx, userId, UpstreamProvider)
	if token == "" {
		s.log.Debug("DashboardService", "No valid token, serving default view-model", map[string]interface{}{
			"user_id": userId.String(),
			"path":    path,
		})
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("DashboardService", "Upstream fetch failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn("DashboardService", "Upstream returned error status", map[string]interface{}{
			"path":   path,
			"status": resp.StatusCode,
		})
		return false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}
	// Fail closed on shape mismatch rather than trusting field presence.
	if err := json.Unmarshal(body, out); err != nil {
		s.log.Warn("DashboardService", "Upstream payload did not match schema", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (s *dashboardService) EmailSummary(ctx context.Context, userId uuid.UUID) dto.EmailSummary {
	var summary dto.EmailSummary
	s.getJSON(ctx, userId, "/v1/emails/summary", &summary)
	return summary
}

func (s *dashboardService) Events(ctx context.Context, userId uuid.UUID, day time.Time) []dto.CalendarEvent {
	var events []dto.CalendarEvent
	path := fmt.Sprintf("/v1/calendar/events?date=%s", day.Format("2006-01-02"))
	if !s.getJSON(ctx, userId, path, &events) {
		return []dto.CalendarEvent{}
	}
	return events
}

func (s *dashboardService) TaskSummary(ctx context.Context, userId uuid.UUID) dto.TaskSummary {
	var summary dto.TaskSummary
	s.getJSON(ctx, userId, "/v1/tasks/summary", &summary)
	return summary
}

func (s *dashboardService) Reminders(ctx context.Context, userId uuid.UUID) []dto.Reminder {
	var reminders []dto.Reminder
	if !s.getJSON(ctx, userId, "/v1/reminders", &reminders) {
		return []dto.Reminder{}
	}
	return reminders
}

func (s *dashboardService) Summary(ctx context.Context, userId uuid.UUID) dto.DashboardSummary {
	now := time.Now()
	return dto.DashboardSummary{
		Emails:    s.EmailSummary(ctx, userId),
		Events:    s.Events(ctx, userId, now),
		Tasks:     s.TaskSummary(ctx, userId),
		Reminders: s.Reminders(ctx, userId),
	}
}

func (s *dashboardService) CreateEvent(ctx context.Context, userId uuid.UUID, req *dto.CreateEventRequest) (*dto.CalendarEvent, error) {
	token := s.tokenService.GetValidToken(ctx, userId, UpstreamProvider)
	if token == "" {
		return nil, fmt.Errorf("no valid session, re-login required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/calendar/events", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var created dto.CalendarEvent
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &created, nil
}

func (s *dashboardService) MorningBrief(ctx context.Context, userId uuid.UUID, withAudio bool) (*dto.MorningBriefResponse, error) {
	summary := s.Summary(ctx, userId)

	displayName := ""
	if profile, err := s.userService.GetProfile(ctx, userId); err == nil && profile != nil {
		displayName = profile.FullName
	}

	snapshot := briefing.Snapshot{
		DisplayName:     displayName,
		ImportantEmails: summary.Emails.TotalImportant,
		UnreadEmails:    summary.Emails.Unread,
		TasksDue:        summary.Tasks.DueToday,
	}
	for _, e := range summary.Events {
		snapshot.Events = append(snapshot.Events, briefing.EventItem{Title: e.Title, Start: e.Start})
	}
	for _, r := range summary.Reminders {
		snapshot.Reminders = append(snapshot.Reminders, r.Label)
	}

	brief := &dto.MorningBriefResponse{
		Text: briefing.Compose(time.Now(), snapshot),
	}

	if withAudio {
		// Text-without-audio beats no brief at all.
		brief.Audio, brief.MIME = s.voiceService.Speak(ctx, brief.Text)
	}

	return brief, nil
}
