// Package briefing composes the spoken morning-brief text from the
// dashboard summaries. Pure text assembly, no I/O.
package briefing

import (
	"fmt"
	"strings"
	"time"
)

type EventItem struct {
	Title string
	Start time.Time
}

// Snapshot is everything the brief needs, already fetched.
type Snapshot struct {
	DisplayName     string
	ImportantEmails int
	UnreadEmails    int
	Events          []EventItem
	TasksDue        int
	Reminders       []string
	Weather         string
}

// Compose renders the snapshot as short spoken sentences.
func Compose(now time.Time, s Snapshot) string {
	var b strings.Builder

	b.WriteString(greeting(now))
	if s.DisplayName != "" {
		b.WriteString(", ")
		b.WriteString(firstName(s.DisplayName))
	}
	b.WriteString(". ")

	if s.Weather != "" {
		b.WriteString(s.Weather)
		b.WriteString(". ")
	}

	switch {
	case s.ImportantEmails > 0:
		fmt.Fprintf(&b, "You have %d important %s and %d unread in total. ",
			s.ImportantEmails, plural(s.ImportantEmails, "email", "emails"), s.UnreadEmails)
	case s.UnreadEmails > 0:
		fmt.Fprintf(&b, "You have %d unread %s. ",
			s.UnreadEmails, plural(s.UnreadEmails, "email", "emails"))
	default:
		b.WriteString("Your inbox is clear. ")
	}

	if len(s.Events) == 0 {
		b.WriteString("Your calendar is free today. ")
	} else {
		fmt.Fprintf(&b, "You have %d %s today", len(s.Events), plural(len(s.Events), "event", "events"))
		first := s.Events[0]
		if !first.Start.IsZero() {
			fmt.Fprintf(&b, ", starting with %s at %s", first.Title, first.Start.Format("3:04 PM"))
		}
		b.WriteString(". ")
	}

	if s.TasksDue > 0 {
		fmt.Fprintf(&b, "%d %s due today. ", s.TasksDue, plural(s.TasksDue, "task is", "tasks are"))
	}
	if len(s.Reminders) > 0 {
		fmt.Fprintf(&b, "Don't forget: %s.", strings.Join(s.Reminders, ", "))
	}

	return strings.TrimSpace(b.String())
}

func greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
