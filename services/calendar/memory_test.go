package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"receptionist/models"

	"github.com/stretchr/testify/require"
)

func TestMemoryCalendarListsOverlappingEventsInOrder(t *testing.T) {
	base := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	cal := NewMemoryCalendar(
		models.CalendarEvent{ID: "late", Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour)},
		models.CalendarEvent{ID: "early", Start: base, End: base.Add(time.Hour)},
		models.CalendarEvent{ID: "outside", Start: base.AddDate(0, 0, 2), End: base.AddDate(0, 0, 2).Add(time.Hour)},
	)

	events, err := cal.ListEvents(context.Background(), base, base.Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "early", events[0].ID)
	require.Equal(t, "late", events[1].ID)

	// Touching the range edge is not an overlap.
	events, err = cal.ListEvents(context.Background(), base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestMemoryCalendarCreateDelete(t *testing.T) {
	cal := NewMemoryCalendar()
	ctx := context.Background()

	ev, err := cal.CreateEvent(ctx, models.CalendarEvent{Summary: "haircut - Kevin"})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, 1, cal.Len())

	require.NoError(t, cal.DeleteEvent(ctx, ev.ID))
	require.ErrorIs(t, cal.DeleteEvent(ctx, ev.ID), ErrEventNotFound)
}

func TestMemoryCalendarSimulatedOutage(t *testing.T) {
	cal := NewMemoryCalendar()
	cal.Err = errors.New("down")

	_, err := cal.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	_, err = cal.CreateEvent(context.Background(), models.CalendarEvent{})
	require.Error(t, err)
}

func TestBusyIntervals(t *testing.T) {
	start := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	busy := BusyIntervals([]models.CalendarEvent{{Start: start, End: start.Add(30 * time.Minute)}})
	require.Len(t, busy, 1)
	require.True(t, busy[0].Overlaps(start.Add(15*time.Minute), start.Add(45*time.Minute)))
	require.False(t, busy[0].Overlaps(start.Add(30*time.Minute), start.Add(time.Hour)))
}
