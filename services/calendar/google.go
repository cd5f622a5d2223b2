package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"receptionist/models"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendar is a Backend on top of the Google Calendar v3 API.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *zap.Logger
}

// GoogleCredentials selects how the service account is loaded. Path wins over JSON.
type GoogleCredentials struct {
	Path string
	JSON string
}

// NewGoogleCalendar authenticates with a service account.
func NewGoogleCalendar(ctx context.Context, creds GoogleCredentials, calendarID string, loc *time.Location, logger *zap.Logger) (*GoogleCalendar, error) {
	var opt option.ClientOption
	switch {
	case creds.Path != "":
		opt = option.WithCredentialsFile(creds.Path)
	case creds.JSON != "":
		opt = option.WithCredentialsJSON([]byte(creds.JSON))
	default:
		return nil, ErrNotConfigured
	}

	svc, err := gcal.NewService(ctx, opt, option.WithScopes(gcal.CalendarScope))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	logger.Info("Successfully authenticated with Google Calendar", zap.String("calendarID", calendarID))
	return &GoogleCalendar{svc: svc, calendarID: calendarID, loc: loc, logger: logger}, nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	call := g.svc.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			ev, err := g.fromAPI(item)
			if err != nil {
				g.logger.Warn("skipping calendar event with unreadable times",
					zap.String("eventID", item.Id), zap.Error(err))
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, ev models.CalendarEvent) (models.CalendarEvent, error) {
	body := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 15},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := g.svc.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("insert calendar event: %w", err)
	}
	ev.ID = created.Id
	ev.Link = created.HtmlLink
	return ev, nil
}

func (g *GoogleCalendar) DeleteEvent(ctx context.Context, id string) error {
	err := g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

// fromAPI reads timed and all-day events; all-day dates are placed in the shop zone.
func (g *GoogleCalendar) fromAPI(item *gcal.Event) (models.CalendarEvent, error) {
	start, err := g.parseEventTime(item.Start)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	end, err := g.parseEventTime(item.End)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	return models.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
		Link:        item.HtmlLink,
	}, nil
}

func (g *GoogleCalendar) parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, errors.New("missing event time")
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(g.loc), nil
	}
	return time.ParseInLocation("2006-01-02", edt.Date, g.loc)
}
