package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	recordsRepo "receptionist/database/repository/records"
	"receptionist/models"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecords struct {
	records []models.CallRecord
	limit   int64
	err     error
}

func (f *fakeRecords) Save(context.Context, models.CallRecord) (string, error) { return "r1", nil }

func (f *fakeRecords) GetBySessionID(context.Context, string) (*models.CallRecord, error) {
	return nil, recordsRepo.ErrRecordNotFound
}

func (f *fakeRecords) List(_ context.Context, limit int64) ([]models.CallRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func adminRouter(h *AdminHandler) *gin.Engine {
	r := gin.New()
	r.POST("/login", h.Login)
	r.GET("/appointments/upcoming", h.UpcomingAppointments)
	r.DELETE("/appointments/:eventID", h.CancelAppointment)
	r.GET("/calls", h.ListCalls)
	r.GET("/sessions/:sessionID", h.GetSession)
	return r
}

func adminCreds(t *testing.T) AdminCredentials {
	t.Helper()
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	return AdminCredentials{Username: "owner", PasswordHash: hash, Secret: []byte("jwt-secret")}
}

func TestAdminLogin(t *testing.T) {
	e := newEnv(t)
	creds := adminCreds(t)
	r := adminRouter(NewAdminHandler(e.engine, nil, e.agent, creds, zap.NewNop()))

	w := postJSON(r, "/login", `{"username":"owner","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := utils.ValidateToken(creds.Secret, resp.Token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims["role"])
	require.Equal(t, "owner", claims["sub"])

	require.Equal(t, http.StatusUnauthorized, postJSON(r, "/login", `{"username":"owner","password":"nope"}`).Code)
	require.Equal(t, http.StatusUnauthorized, postJSON(r, "/login", `{"username":"someone","password":"s3cret"}`).Code)
	require.Equal(t, http.StatusBadRequest, postJSON(r, "/login", `{"username":"owner"}`).Code)
}

func TestAdminAppointments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev, err := e.cal.CreateEvent(ctx, models.CalendarEvent{
		Summary: "haircut - Kevin",
		Start:   time.Date(2024, 6, 11, 10, 0, 0, 0, shopZone),
		End:     time.Date(2024, 6, 11, 10, 30, 0, 0, shopZone),
	})
	require.NoError(t, err)
	r := adminRouter(NewAdminHandler(e.engine, nil, e.agent, adminCreds(t), zap.NewNop()))

	w := do(r, http.MethodGet, "/appointments/upcoming?days=3")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Appointments []models.Appointment `json:"appointments"`
		Count        int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, ev.ID, resp.Appointments[0].EventID)
	require.Equal(t, "Tuesday, June 11, 2024 at 10:00 AM", resp.Appointments[0].FormattedTime)

	require.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/appointments/upcoming?days=0").Code)
	require.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/appointments/upcoming?days=abc").Code)

	require.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/appointments/"+ev.ID).Code)
	require.Zero(t, e.cal.Len())
	require.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/appointments/"+ev.ID).Code)

	e.cal.Err = errors.New("down")
	require.Equal(t, http.StatusBadGateway, do(r, http.MethodGet, "/appointments/upcoming").Code)
}

func TestAdminCalls(t *testing.T) {
	e := newEnv(t)

	r := adminRouter(NewAdminHandler(e.engine, nil, e.agent, adminCreds(t), zap.NewNop()))
	require.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/calls").Code)

	records := &fakeRecords{records: []models.CallRecord{{SessionID: "s1"}, {SessionID: "s2"}}}
	r = adminRouter(NewAdminHandler(e.engine, records, e.agent, adminCreds(t), zap.NewNop()))

	w := do(r, http.MethodGet, "/calls?limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 10, records.limit)
	var resp struct {
		Calls []models.CallRecord `json:"calls"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	require.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/calls?limit=-1").Code)
	records.err = errors.New("mongo down")
	require.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/calls").Code)
}

func TestAdminGetSession(t *testing.T) {
	e := newEnv(t)
	_, err := e.agent.StartSession(context.Background(), "session_CA1", "CA1", "+96170123456")
	require.NoError(t, err)
	r := adminRouter(NewAdminHandler(e.engine, nil, e.agent, adminCreds(t), zap.NewNop()))

	w := do(r, http.MethodGet, "/sessions/session_CA1")
	require.Equal(t, http.StatusOK, w.Code)
	var sess models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	require.Equal(t, "CA1", sess.CallSID)

	require.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/sessions/missing").Code)
}
