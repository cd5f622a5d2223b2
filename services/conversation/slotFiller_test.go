package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"receptionist/models"
	"receptionist/services/session"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubScheduler always has room and books everything.
type stubScheduler struct {
	commits int
}

func (s *stubScheduler) DayAvailability(_ context.Context, date string) models.DayAvailability {
	start := at(date, "09:00")
	return models.DayAvailability{
		Date:   date,
		Status: models.AvailabilityOpen,
		Slots: []models.TimeSlot{{
			Start: start, End: start.Add(30 * time.Minute), Date: date,
			StartTime: "09:00", FormattedTime: "09:00 AM", FormattedDate: start.Format("Monday, January 02"),
		}},
	}
}

func (s *stubScheduler) FindNextAvailable(ctx context.Context, _, _ int) []models.TimeSlot {
	return s.DayAvailability(ctx, "2024-06-11").Slots
}

func (s *stubScheduler) Commit(_ context.Context, req models.BookingRequest) (*models.BookingConfirmation, error) {
	s.commits++
	start := at(req.Date, req.Time)
	return &models.BookingConfirmation{EventID: "evt", Start: start, FormattedDateTime: start.Format("Monday, January 02, 2006 at 03:04 PM")}, nil
}

func (s *stubScheduler) FindUpcomingByPhone(context.Context, string, int) (*models.CalendarEvent, error) {
	return nil, nil
}

func (s *stubScheduler) CancelAppointment(context.Context, string) error { return nil }

var questionFor = map[models.BookingField]string{
	models.FieldName:    "May I have your name",
	models.FieldService: "What service would you like",
	models.FieldDate:    "Which date works for you",
	models.FieldTime:    "What time works best",
}

func TestSlotFillerAsksExactlyTheFirstMissingField(t *testing.T) {
	full := models.AppointmentDetails{CustomerName: "Kevin", Service: "haircut", Date: "2024-06-11", Time: "10:00"}

	for mask := 0; mask < 16; mask++ {
		var appt models.AppointmentDetails
		if mask&1 != 0 {
			appt.CustomerName = full.CustomerName
		}
		if mask&2 != 0 {
			appt.Service = full.Service
		}
		if mask&4 != 0 {
			appt.Date = full.Date
		}
		if mask&8 != 0 {
			appt.Time = full.Time
		}

		t.Run(fmt.Sprintf("known=%04b", mask), func(t *testing.T) {
			sched := &stubScheduler{}
			agent := NewAgent(cannedClassifier{intent: models.IntentOther}, sched,
				session.NewMemoryStore(time.Hour, time.Hour, zap.NewNop()), testShop(), zap.NewNop(), WithClock(clock))

			sess := models.NewSession("s", "", "+15550100", fixedNow)
			sess.State = models.StateBookingAppointment
			sess.Appointment = appt

			out := agent.decide(context.Background(), sess, models.IntentOther, models.ExtractedFields{})

			missing := appt.Missing()
			if len(missing) == 0 {
				require.Equal(t, 1, sched.commits)
				require.Equal(t, models.StateEndingCall, out.state)
				return
			}

			require.Zero(t, sched.commits)
			require.Equal(t, models.StateBookingAppointment, out.state)
			require.Equal(t, appt, out.appointment)
			for field, question := range questionFor {
				if field == missing[0] {
					require.Contains(t, out.reply, question)
				} else {
					require.NotContains(t, out.reply, question)
				}
			}
		})
	}
}

func TestServiceQuestionListsCatalog(t *testing.T) {
	agent := NewAgent(cannedClassifier{}, &stubScheduler{}, nil, testShop(), zap.NewNop())
	out := turnResult{}
	agent.askFor(context.Background(), models.FieldService, models.AppointmentDetails{}, &out)
	require.Equal(t, "What service would you like? We offer haircut, beard trim, hair wash, or full service.", out.reply)
}

func TestJoinHelpers(t *testing.T) {
	require.Equal(t, "", joinAnd(nil))
	require.Equal(t, "a", joinAnd([]string{"a"}))
	require.Equal(t, "a and b", joinAnd([]string{"a", "b"}))
	require.Equal(t, "a, b, or c", joinOr([]string{"a", "b", "c"}))
	require.True(t, strings.HasPrefix(readableTime("15:30"), "03:30 PM"))
	require.Equal(t, "Tuesday, June 11", readableDate("2024-06-11", testShop()))
}
