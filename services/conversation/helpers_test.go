package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"receptionist/models"
	"receptionist/services/booking"
	"receptionist/services/calendar"
	ai "receptionist/services/intelligence"
	"receptionist/services/session"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var shopZone = time.FixedZone("shop", 3*60*60)

// Monday 2024-06-10, 08:00 shop time.
var fixedNow = time.Date(2024, 6, 10, 8, 0, 0, 0, shopZone)

func clock() time.Time { return fixedNow }

func testShop() models.ShopConfig {
	weekday := models.DayHours{Open: "09:00", Close: "20:00"}
	return models.ShopConfig{
		Name:         "Mounir Cutzz",
		Location:     "Lebanon",
		Timezone:     shopZone,
		HoursSummary: "Monday to Saturday, 9 AM to 8 PM. Closed on Sundays",
		Hours: models.BusinessHours{
			"monday": weekday, "tuesday": weekday, "wednesday": weekday,
			"thursday": weekday, "friday": weekday, "saturday": weekday,
		},
		Services: []models.Service{
			{ID: "haircut", Name: "Haircut", DurationMinutes: 30, Price: "$15"},
			{ID: "beard_trim", Name: "Beard trim", DurationMinutes: 15, Price: "$8", Aliases: []string{"beard"}},
			{ID: "hair_wash", Name: "Hair wash", DurationMinutes: 10, Price: "$5"},
			{ID: "full_service", Name: "Full service", DurationMinutes: 45, Price: "$25"},
		},
		DefaultDurationMinutes: 30,
	}
}

type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
}

func (f *fakeArchiver) EnqueueArchive(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, sessionID)
	return nil
}

// cannedClassifier returns fixed answers so routing can be tested alone.
type cannedClassifier struct {
	intent models.Intent
	fields models.ExtractedFields
}

func (c cannedClassifier) Classify(context.Context, string, []models.Turn) (models.Intent, models.ExtractedFields) {
	return c.intent, c.fields
}

type harness struct {
	agent    *Agent
	cal      *calendar.MemoryCalendar
	store    *session.MemoryStore
	archiver *fakeArchiver
}

// newHarness wires the real adapter, engine and stores around a memory calendar.
func newHarness(t *testing.T, classifier ai.Classifier) *harness {
	t.Helper()
	shop := testShop()
	cal := calendar.NewMemoryCalendar()
	engine := booking.NewEngine(cal, shop, zap.NewNop(), booking.WithClock(clock))
	store := session.NewMemoryStore(time.Hour, 24*time.Hour, zap.NewNop())
	if classifier == nil {
		classifier = ai.NewIntentAdapter(ai.NewKeywordModel(shop), shop, zap.NewNop(), ai.WithAdapterClock(clock))
	}
	arch := &fakeArchiver{}
	agent := NewAgent(classifier, engine, store, shop, zap.NewNop(), WithArchiver(arch), WithClock(clock))
	return &harness{agent: agent, cal: cal, store: store, archiver: arch}
}

func (h *harness) start(t *testing.T, id, caller string) {
	t.Helper()
	_, err := h.agent.StartSession(context.Background(), id, "CA-"+id, caller)
	require.NoError(t, err)
}

func (h *harness) say(t *testing.T, id, text string) Reply {
	t.Helper()
	reply, err := h.agent.HandleUtterance(context.Background(), id, text)
	require.NoError(t, err)
	return reply
}

func (h *harness) session(t *testing.T, id string) *models.Session {
	t.Helper()
	sess, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return sess
}

func at(date, clock string) time.Time {
	t, err := booking.ParseDateTime(date, clock, shopZone)
	if err != nil {
		panic(err)
	}
	return t
}

// agentWith builds a second agent over the harness calendar, e.g. around a
// wrapped store or a synchronizing classifier.
func (h *harness) agentWith(classifier ai.Classifier, store session.Store) *Agent {
	shop := testShop()
	engine := booking.NewEngine(h.cal, shop, zap.NewNop(), booking.WithClock(clock))
	if classifier == nil {
		classifier = ai.NewIntentAdapter(ai.NewKeywordModel(shop), shop, zap.NewNop(), ai.WithAdapterClock(clock))
	}
	return NewAgent(classifier, engine, store, shop, zap.NewNop(), WithArchiver(h.archiver), WithClock(clock))
}

// barrierClassifier holds every caller until all expected callers arrived,
// so concurrent turns decide on the same session snapshot.
type barrierClassifier struct {
	inner ai.Classifier
	ready *sync.WaitGroup
}

func (b barrierClassifier) Classify(ctx context.Context, text string, history []models.Turn) (models.Intent, models.ExtractedFields) {
	b.ready.Done()
	b.ready.Wait()
	return b.inner.Classify(ctx, text, history)
}

// interleavingStore lands another writer's change just before the first
// Update, as a second delivery of the same call would.
type interleavingStore struct {
	session.Store
	once  sync.Once
	other func(*models.Session)
}

func (s *interleavingStore) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	var otherErr error
	s.once.Do(func() {
		_, otherErr = s.Store.Update(ctx, id, func(sess *models.Session) error {
			s.other(sess)
			sess.Revision++
			return nil
		})
	})
	if otherErr != nil {
		return nil, otherErr
	}
	return s.Store.Update(ctx, id, fn)
}
