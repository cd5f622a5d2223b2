package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"receptionist/models"

	"github.com/google/uuid"
)

// MemoryCalendar is an in-process Backend used for local development and tests.
type MemoryCalendar struct {
	mu     sync.Mutex
	events map[string]models.CalendarEvent

	// Err, when set, is returned by every call to simulate an unreachable backend.
	Err error
}

func NewMemoryCalendar(seed ...models.CalendarEvent) *MemoryCalendar {
	m := &MemoryCalendar{events: make(map[string]models.CalendarEvent)}
	for _, ev := range seed {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		m.events[ev.ID] = ev
	}
	return m
}

func (m *MemoryCalendar) ListEvents(_ context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []models.CalendarEvent
	for _, ev := range m.events {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *MemoryCalendar) CreateEvent(_ context.Context, ev models.CalendarEvent) (models.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.CalendarEvent{}, m.Err
	}

	ev.ID = uuid.New().String()
	m.events[ev.ID] = ev
	return ev, nil
}

func (m *MemoryCalendar) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(m.events, id)
	return nil
}

// Len returns the number of stored events.
func (m *MemoryCalendar) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
