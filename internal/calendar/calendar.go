// Package calendar wraps the Google Calendar API for tutoring session
// scheduling.
package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Slot is a free interval suitable for one tutoring session.
type Slot struct {
	Start time.Time
	End   time.Time
}

type Service struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
}

func New(ctx context.Context, credentialsPath, calendarID, timezone string) (*Service, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Service{svc: svc, calendarID: calendarID, timezone: timezone}, nil
}

// CreateEvent books a session and notifies all attendees.
func (s *Service) CreateEvent(ctx context.Context, summary, description string, start, end time.Time, attendees []string) (*calendar.Event, error) {
	ev := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: s.timezone},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: s.timezone},
	}
	for _, email := range attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	created, err := s.svc.Events.Insert(s.calendarID, ev).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	return created, nil
}

// DeleteEvent removes a booked session.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.svc.Events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	return nil
}

// AvailableSlots computes free intervals of the given duration on one day,
// walking forward in 15 minute steps around existing events.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time, duration time.Duration) ([]Slot, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	events, err := s.svc.Events.List(s.calendarID).
		TimeMin(startOfDay.Format(time.RFC3339)).
		TimeMax(endOfDay.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	var busy []Slot
	for _, ev := range events.Items {
		if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		bs, err1 := time.Parse(time.RFC3339, ev.Start.DateTime)
		be, err2 := time.Parse(time.RFC3339, ev.End.DateTime)
		if err1 != nil || err2 != nil {
			continue
		}
		busy = append(busy, Slot{Start: bs, End: be})
	}

	return freeSlots(startOfDay, endOfDay, busy, duration), nil
}

func freeSlots(start, end time.Time, busy []Slot, duration time.Duration) []Slot {
	var slots []Slot
	current := start
	for current.Before(end) {
		slotEnd := current.Add(duration)
		available := true
		for _, b := range busy {
			if current.Before(b.End) && slotEnd.After(b.Start) {
				available = false
				current = b.End
				break
			}
		}
		if available {
			slots = append(slots, Slot{Start: current, End: slotEnd})
			current = slotEnd
		} else {
			current = current.Add(15 * time.Minute)
		}
	}
	return slots
}
