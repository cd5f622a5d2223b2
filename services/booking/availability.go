package booking

import (
	"context"
	"sync"
	"time"

	"receptionist/models"
	"receptionist/services/calendar"

	"go.uber.org/zap"
)

// maxSlotsPerDay spreads suggestions over several days instead of one.
const maxSlotsPerDay = 2

// Engine answers availability questions and commits bookings against a calendar backend.
type Engine struct {
	cal          calendar.Backend
	shop         models.ShopConfig
	slotDuration time.Duration
	granularity  time.Duration
	timeout      time.Duration
	now          func() time.Time
	logger       *zap.Logger

	// commitMu serializes check-then-create within this process.
	commitMu sync.Mutex
}

type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTimeout bounds every calendar call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithGrid overrides the slot length and the step between slot starts.
func WithGrid(slotDuration, granularity time.Duration) Option {
	return func(e *Engine) {
		e.slotDuration = slotDuration
		e.granularity = granularity
	}
}

func NewEngine(cal calendar.Backend, shop models.ShopConfig, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		cal:          cal,
		shop:         shop,
		slotDuration: DefaultSlotDuration,
		granularity:  DefaultGranularity,
		timeout:      5 * time.Second,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the current time in the shop's zone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.shop.Loc())
}

func (e *Engine) busyBetween(ctx context.Context, from, to time.Time) ([]models.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	events, err := e.cal.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return calendar.BusyIntervals(events), nil
}

// DayAvailability never fails: an unreachable backend yields AvailabilityUnknown.
func (e *Engine) DayAvailability(ctx context.Context, date string) models.DayAvailability {
	result := models.DayAvailability{Date: date, Status: models.AvailabilityUnknown}

	day, err := ParseDate(date, e.shop.Loc())
	if err != nil {
		e.logger.Warn("unparseable date for availability", zap.String("date", date), zap.Error(err))
		return result
	}
	if _, _, open := e.shop.Hours.For(day.Weekday()); !open {
		result.Status = models.AvailabilityClosed
		return result
	}

	busy, err := e.busyBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		e.logger.Error("failed to read calendar for availability", zap.String("date", date), zap.Error(err))
		return result
	}

	result.Slots = e.futureOnly(ComputeSlots(day, e.shop.Hours, busy, e.slotDuration, e.granularity))
	if len(result.Slots) == 0 {
		result.Status = models.AvailabilityFullyBooked
		return result
	}
	result.Status = models.AvailabilityOpen
	return result
}

// FindNextAvailable scans consecutive days starting today. Today is skipped once
// the shop has closed. An unreachable backend yields an empty result.
func (e *Engine) FindNextAvailable(ctx context.Context, daysToCheck, numSlots int) []models.TimeSlot {
	if daysToCheck <= 0 || numSlots <= 0 {
		return nil
	}

	now := e.Now()
	first := startOfDay(now)
	// Today counts towards daysToCheck even when it is skipped.
	last := first.AddDate(0, 0, daysToCheck)
	if _, closeMin, open := e.shop.Hours.For(now.Weekday()); !open || now.Hour()*60+now.Minute() >= closeMin {
		first = first.AddDate(0, 0, 1)
	}
	if !first.Before(last) {
		return nil
	}

	busy, err := e.busyBetween(ctx, first, last)
	if err != nil {
		e.logger.Error("failed to read calendar for next availability", zap.Error(err))
		return nil
	}

	var found []models.TimeSlot
	for day := first; day.Before(last) && len(found) < numSlots; day = day.AddDate(0, 0, 1) {
		daySlots := e.futureOnly(ComputeSlots(day, e.shop.Hours, busy, e.slotDuration, e.granularity))
		if len(daySlots) > maxSlotsPerDay {
			daySlots = daySlots[:maxSlotsPerDay]
		}
		if room := numSlots - len(found); len(daySlots) > room {
			daySlots = daySlots[:room]
		}
		found = append(found, daySlots...)
	}
	return found
}

// futureOnly drops slots that have already started.
func (e *Engine) futureOnly(slots []models.TimeSlot) []models.TimeSlot {
	now := e.now()
	kept := slots[:0]
	for _, s := range slots {
		if s.Start.After(now) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
