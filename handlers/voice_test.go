package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"receptionist/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSTT struct {
	text       string
	confidence float32
	err        error
	calls      []string
}

func (f *fakeSTT) TranscribeRecording(_ context.Context, recordingURL string) (string, float32, error) {
	f.calls = append(f.calls, recordingURL)
	return f.text, f.confidence, f.err
}

func voiceRouter(h *VoiceHandler) *gin.Engine {
	r := gin.New()
	r.POST("/webhook/voice", h.IncomingCall)
	r.POST("/webhook/process-speech", h.ProcessSpeech)
	r.POST("/webhook/partial-speech", h.PartialSpeech)
	r.POST("/webhook/status", h.CallStatus)
	return r
}

func TestIncomingCallGreetsAndGathers(t *testing.T) {
	e := newEnv(t)
	r := voiceRouter(NewVoiceHandler(e.agent, nil, "en-US", zap.NewNop()))

	w := postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}, "From": {"+96170123456"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, w.Header().Get("Content-Type"), "xml")
	require.Contains(t, body, "<Gather")
	require.Contains(t, body, `input="speech"`)
	require.Contains(t, body, "session_id=session_CA1")
	require.Contains(t, body, "Welcome to Mounir Cutzz barber shop")
	require.Contains(t, body, "<Hangup")

	sess := e.session(t, "session_CA1")
	require.Equal(t, "CA1", sess.CallSID)
	require.Equal(t, "+96170123456", sess.CallerNumber)
	require.Equal(t, models.StateGreeting, sess.State)
}

func TestIncomingCallWithoutCallSid(t *testing.T) {
	e := newEnv(t)
	r := voiceRouter(NewVoiceHandler(e.agent, nil, "en-US", zap.NewNop()))

	w := postForm(r, "/webhook/voice", url.Values{"From": {"+1"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "technical difficulties")
}

func TestProcessSpeechRunsTurn(t *testing.T) {
	e := newEnv(t)
	r := voiceRouter(NewVoiceHandler(e.agent, nil, "en-US", zap.NewNop()))
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}, "From": {"+96170123456"}})

	w := postForm(r, "/webhook/process-speech?session_id=session_CA1", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"I'm Kevin, I'd like a haircut tomorrow"},
		"Confidence":   {"0.92"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "What time works best")
	require.Contains(t, w.Body.String(), "<Gather")
	require.Equal(t, models.StateBookingAppointment, e.session(t, "session_CA1").State)

	w = postForm(r, "/webhook/process-speech?session_id=session_CA1", url.Values{
		"SpeechResult": {"10am please"},
		"Confidence":   {"0.9"},
	})
	body := w.Body.String()
	require.Contains(t, body, "Tuesday, June 11, 2024 at 10:00 AM")
	require.Contains(t, body, "<Hangup")
	require.NotContains(t, body, "<Gather")
	require.Equal(t, 1, e.cal.Len())
}

func TestProcessSpeechLowConfidenceReprompts(t *testing.T) {
	e := newEnv(t)
	r := voiceRouter(NewVoiceHandler(e.agent, nil, "en-US", zap.NewNop()))
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}})

	w := postForm(r, "/webhook/process-speech?session_id=session_CA1", url.Values{
		"SpeechResult": {"mumble"},
		"Confidence":   {"0.2"},
	})
	require.Contains(t, w.Body.String(), "Could you please repeat?")
	require.Contains(t, w.Body.String(), "<Gather")
	// Nothing was recorded for the unintelligible turn.
	require.Len(t, e.session(t, "session_CA1").History, 1)
}

func TestProcessSpeechUsesRecordingWhenMoreConfident(t *testing.T) {
	e := newEnv(t)
	stt := &fakeSTT{text: "I want a haircut", confidence: 0.85}
	r := voiceRouter(NewVoiceHandler(e.agent, stt, "en-US", zap.NewNop()))
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}})

	w := postForm(r, "/webhook/process-speech?session_id=session_CA1", url.Values{
		"SpeechResult": {"I want a hair"},
		"Confidence":   {"0.4"},
		"RecordingUrl": {"https://api.twilio.com/rec/RE1"},
	})
	require.Equal(t, []string{"https://api.twilio.com/rec/RE1"}, stt.calls)
	require.Contains(t, w.Body.String(), "May I have your name")
	require.Equal(t, "haircut", e.session(t, "session_CA1").Appointment.Service)
}

func TestProcessSpeechKeepsGatherResultWhenSTTFails(t *testing.T) {
	e := newEnv(t)
	stt := &fakeSTT{err: errors.New("speech api down")}
	r := voiceRouter(NewVoiceHandler(e.agent, stt, "en-US", zap.NewNop()))
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}})

	w := postForm(r, "/webhook/process-speech?session_id=session_CA1", url.Values{
		"SpeechResult": {"what are your hours"},
		"Confidence":   {"0.5"},
		"RecordingUrl": {"https://api.twilio.com/rec/RE1"},
	})
	require.Len(t, stt.calls, 1)
	require.Contains(t, w.Body.String(), "Monday to Saturday")
	require.Equal(t, models.StateProvidingInfo, e.session(t, "session_CA1").State)
}

func TestProcessSpeechConfidentResultSkipsSTT(t *testing.T) {
	e := newEnv(t)
	stt := &fakeSTT{text: "ignored", confidence: 0.99}
	r := voiceRouter(NewVoiceHandler(e.agent, stt, "en-US", zap.NewNop()))
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}})

	postForm(r, "/webhook/process-speech?session_id=session_CA1", url.Values{
		"SpeechResult": {"hello"},
		"Confidence":   {"0.8"},
		"RecordingUrl": {"https://api.twilio.com/rec/RE1"},
	})
	require.Empty(t, stt.calls)
}

func TestCallStatusEndsSessionOnTerminalStatus(t *testing.T) {
	e := newEnv(t)
	r := voiceRouter(NewVoiceHandler(e.agent, nil, "en-US", zap.NewNop()))
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA1"}})
	postForm(r, "/webhook/voice", url.Values{"CallSid": {"CA2"}})

	w := postForm(r, "/webhook/status", url.Values{"CallSid": {"CA1"}, "CallStatus": {"in-progress"}})
	require.Equal(t, http.StatusNoContent, w.Code)
	require.False(t, e.session(t, "session_CA1").Ended())

	postForm(r, "/webhook/status", url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}})
	require.True(t, e.session(t, "session_CA1").Ended())
	require.Equal(t, []string{"session_CA1"}, e.archiver.archived)

	postForm(r, "/webhook/status", url.Values{"CallSid": {"CA2"}, "CallStatus": {"no-answer"}})
	require.True(t, e.session(t, "session_CA2").Ended())
}

func TestPartialSpeechAcks(t *testing.T) {
	e := newEnv(t)
	r := voiceRouter(NewVoiceHandler(e.agent, nil, "en-US", zap.NewNop()))
	w := postForm(r, "/webhook/partial-speech", url.Values{"CallSid": {"CA1"}, "UnstableSpeechResult": {"I'd li"}})
	require.Equal(t, http.StatusNoContent, w.Code)
}
