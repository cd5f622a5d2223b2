package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"receptionist/models"
	"receptionist/services/booking"
	"receptionist/services/calendar"
	"receptionist/services/conversation"
	ai "receptionist/services/intelligence"
	"receptionist/services/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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
			{ID: "beard_trim", Name: "Beard trim", DurationMinutes: 15, Price: "$8"},
		},
		DefaultDurationMinutes: 30,
	}
}

type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
}

func (f *fakeArchiver) EnqueueArchive(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, id)
	return nil
}

type env struct {
	agent    *conversation.Agent
	engine   *booking.Engine
	cal      *calendar.MemoryCalendar
	store    *session.MemoryStore
	archiver *fakeArchiver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	shop := testShop()
	cal := calendar.NewMemoryCalendar()
	engine := booking.NewEngine(cal, shop, zap.NewNop(), booking.WithClock(clock))
	store := session.NewMemoryStore(time.Hour, 24*time.Hour, zap.NewNop())
	classifier := ai.NewIntentAdapter(ai.NewKeywordModel(shop), shop, zap.NewNop(), ai.WithAdapterClock(clock))
	arch := &fakeArchiver{}
	agent := conversation.NewAgent(classifier, engine, store, shop, zap.NewNop(),
		conversation.WithArchiver(arch), conversation.WithClock(clock))
	return &env{agent: agent, engine: engine, cal: cal, store: store, archiver: arch}
}

func (e *env) session(t *testing.T, id string) *models.Session {
	t.Helper()
	sess, err := e.store.Get(context.Background(), id)
	require.NoError(t, err)
	return sess
}

func postForm(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func do(r http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
