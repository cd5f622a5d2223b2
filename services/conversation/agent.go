package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"receptionist/models"
	"receptionist/services/booking"
	ai "receptionist/services/intelligence"
	"receptionist/services/session"
	"receptionist/services/speech"

	"go.uber.org/zap"
)

const (
	suggestionDays  = 7
	suggestionSlots = 3
	timesToList     = 5
)

// Archiver queues an ended session for long-term storage.
type Archiver interface {
	EnqueueArchive(ctx context.Context, sessionID string) error
}

// Reply is what the telephony or web layer says back to the caller.
type Reply struct {
	Text      string
	NextState models.ConversationState
	Booking   *models.BookingConfirmation
}

// turnResult is the session delta computed for one utterance.
type turnResult struct {
	reply       string
	state       models.ConversationState
	appointment models.AppointmentDetails
	slots       []models.TimeSlot
	checkedDate string
	booking     *models.BookingConfirmation
	cancelled   bool
}

// Agent is the receptionist's conversation core.
type Agent struct {
	classifier ai.Classifier
	scheduler  booking.Scheduler
	sessions   session.Store
	archiver   Archiver
	shop       models.ShopConfig
	now        func() time.Time
	logger     *zap.Logger
}

type Option func(*Agent)

func WithArchiver(arch Archiver) Option {
	return func(a *Agent) { a.archiver = arch }
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func NewAgent(classifier ai.Classifier, scheduler booking.Scheduler, sessions session.Store, shop models.ShopConfig, logger *zap.Logger, opts ...Option) *Agent {
	a := &Agent{
		classifier: classifier,
		scheduler:  scheduler,
		sessions:   sessions,
		shop:       shop,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Greeting is the first thing a caller hears.
func (a *Agent) Greeting() string {
	return a.shop.Welcome()
}

// StartSession creates a session and records the greeting as its first turn.
func (a *Agent) StartSession(ctx context.Context, sessionID, callSID, caller string) (*models.Session, error) {
	now := a.now()
	sess := models.NewSession(sessionID, callSID, caller, now)
	sess.AddTurn(models.RoleAssistant, a.Greeting(), now)
	if err := a.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	a.logger.Info("session started", zap.String("sessionID", sessionID), zap.String("caller", caller))
	return sess, nil
}

// errStaleTurn aborts a session write when another turn landed after the
// snapshot the decision was based on.
var errStaleTurn = errors.New("session changed during turn")

// maxTurnAttempts bounds how often a turn is re-decided after losing a race.
const maxTurnAttempts = 3

// HandleUtterance runs one conversational turn. Classification and calendar
// work happen first; the session is then updated in a single atomic merge.
// A decision made on a stale snapshot is re-made on the stored session, unless
// it already changed the calendar, in which case it is merged on top.
func (a *Agent) HandleUtterance(ctx context.Context, sessionID, text string) (Reply, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		a.logger.Warn("no session for utterance, starting fresh", zap.String("sessionID", sessionID))
		sess, err = a.StartSession(ctx, sessionID, "", "")
	}
	if err != nil {
		return Reply{}, err
	}
	if sess.Ended() {
		return a.endedReply(), nil
	}

	intent, fields := a.classifier.Classify(ctx, text, sess.History)
	lang := speech.DetectLanguage(text)

	for attempt := 1; ; attempt++ {
		result := a.decide(ctx, sess, intent, fields)
		base := sess.Revision
		now := a.now()

		stored, err := a.sessions.Update(ctx, sessionID, func(s *models.Session) error {
			stale := s.Revision != base || s.Ended()
			if stale && !result.changedCalendar() {
				return errStaleTurn
			}
			wasEnding := s.Ended() || s.BookingConfirmed || s.CurrentState() == models.StateEndingCall
			applyTurn(s, text, lang, result, now)
			if stale && wasEnding && !result.cancelled {
				s.State = models.StateEndingCall
			}
			return nil
		})

		switch {
		case errors.Is(err, errStaleTurn):
			a.logger.Info("turn raced with another, re-reading session",
				zap.String("sessionID", sessionID), zap.Int("attempt", attempt))
			sess, err = a.sessions.Get(ctx, sessionID)
			if err != nil {
				return Reply{}, fmt.Errorf("reload session: %w", err)
			}
			if sess.Ended() || sess.BookingConfirmed || sess.CurrentState() == models.StateEndingCall {
				return storedOutcome(sess), nil
			}
			if attempt >= maxTurnAttempts {
				return Reply{}, fmt.Errorf("update session: %w", errStaleTurn)
			}
			continue
		case errors.Is(err, session.ErrSessionNotFound):
			a.logger.Warn("session vanished during turn", zap.String("sessionID", sessionID))
		case err != nil:
			return Reply{}, fmt.Errorf("update session: %w", err)
		}

		next := result.state
		if stored != nil {
			next = stored.CurrentState()
		}
		a.logger.Info("turn handled",
			zap.String("sessionID", sessionID),
			zap.String("intent", string(intent)),
			zap.String("from", string(sess.CurrentState())),
			zap.String("to", string(next)))

		if next == models.StateEndingCall {
			if err := a.EndSession(ctx, sessionID); err != nil {
				a.logger.Error("failed to end session", zap.String("sessionID", sessionID), zap.Error(err))
			}
		}
		return Reply{Text: result.reply, NextState: next, Booking: result.booking}, nil
	}
}

func (a *Agent) endedReply() Reply {
	return Reply{
		Text:      fmt.Sprintf("This call has already ended. Thank you for calling %s!", a.shop.Name),
		NextState: models.StateEndingCall,
	}
}

// storedOutcome answers a turn that lost the race to one that finished the call.
func storedOutcome(s *models.Session) Reply {
	text := ""
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == models.RoleAssistant {
			text = s.History[i].Text
			break
		}
	}
	return Reply{Text: text, NextState: models.StateEndingCall, Booking: s.Booking}
}

// changedCalendar reports whether the turn committed or deleted an event,
// which must be recorded even when the session moved on meanwhile.
func (r turnResult) changedCalendar() bool {
	return r.booking != nil || r.cancelled
}

func (a *Agent) decide(ctx context.Context, sess *models.Session, intent models.Intent, fields models.ExtractedFields) turnResult {
	state := sess.CurrentState()
	out := turnResult{state: state, appointment: sess.Appointment}

	switch route(state, intent, fields, sess.Appointment) {
	case flowBooking:
		a.bookingFlow(ctx, sess, fields, &out)
	case flowAvailability:
		a.availabilityFlow(ctx, sess, fields, &out)
	case flowInfo:
		out.state = models.StateProvidingInfo
		out.reply = infoReply(intent, a.shop)
	case flowCancel:
		a.cancelFlow(ctx, sess, &out)
	default:
		out.state = clarifyState(state)
		if state == models.StateGreeting {
			out.reply = "How can I help you today? I can book an appointment, check availability, or answer questions about our hours, services and prices."
		} else {
			out.reply = "I'm sorry, I didn't quite catch that. Could you please repeat, or tell me if you'd like to book an appointment?"
		}
	}
	return out
}

func applyTurn(s *models.Session, text, lang string, r turnResult, now time.Time) {
	s.AddTurn(models.RoleUser, text, now)
	s.AddTurn(models.RoleAssistant, r.reply, now)
	s.State = r.state
	s.Appointment = r.appointment
	if r.slots != nil {
		s.AvailableSlots = r.slots
	}
	if r.checkedDate != "" {
		s.SetExtracted(models.ExtractedCheckedDate, r.checkedDate)
	}
	s.SetExtracted(models.ExtractedLanguage, lang)
	if r.booking != nil {
		s.BookingConfirmed = true
		s.Booking = r.booking
	}
	if r.cancelled {
		s.BookingConfirmed = false
		s.Booking = nil
	}
	s.LastActivity = now
	s.Revision++
}

// EndSession closes a session and queues it for archival. Ending an already
// ended session is harmless.
func (a *Agent) EndSession(ctx context.Context, sessionID string) error {
	sess, err := a.sessions.End(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		a.logger.Warn("ending unknown session", zap.String("sessionID", sessionID))
		return nil
	}
	if err != nil {
		return err
	}
	a.logger.Info("session ended", zap.String("sessionID", sessionID), zap.Bool("booked", sess.BookingConfirmed))

	if a.archiver != nil {
		if err := a.archiver.EnqueueArchive(ctx, sessionID); err != nil {
			a.logger.Error("failed to queue call archive", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
	return nil
}

// Session exposes a read-only snapshot for the admin API.
func (a *Agent) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	return a.sessions.Get(ctx, sessionID)
}
