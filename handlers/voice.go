package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"receptionist/models"
	"receptionist/services/speech"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

const (
	// Below this the recording is re-transcribed when one is available.
	sttFallbackConfidence = 0.6
	// Below this the caller is asked to repeat.
	minSpeechConfidence = 0.3

	processSpeechPath = "/webhook/process-speech"
	partialSpeechPath = "/webhook/partial-speech"
)

// RecordingTranscriber re-transcribes a call recording.
type RecordingTranscriber interface {
	TranscribeRecording(ctx context.Context, recordingURL string) (string, float32, error)
}

// terminalCallStatuses end the session when Twilio reports them.
var terminalCallStatuses = map[string]bool{
	"completed": true, "busy": true, "no-answer": true, "failed": true, "canceled": true,
}

// VoiceHandler serves the Twilio voice webhooks.
type VoiceHandler struct {
	agent          Receptionist
	stt            RecordingTranscriber
	speechLanguage string
	logger         *zap.Logger
}

// NewVoiceHandler builds the webhook handler. stt may be nil when speech
// recognition is not configured.
func NewVoiceHandler(agent Receptionist, stt RecordingTranscriber, speechLanguage string, logger *zap.Logger) *VoiceHandler {
	if speechLanguage == "" {
		speechLanguage = "en-US"
	}
	return &VoiceHandler{agent: agent, stt: stt, speechLanguage: speechLanguage, logger: logger}
}

func callSessionID(callSID string) string {
	return "session_" + callSID
}

// IncomingCall answers a new call with the greeting and starts listening.
func (h *VoiceHandler) IncomingCall(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	from := c.PostForm("From")
	if callSID == "" {
		h.logger.Warn("Incoming call without CallSid")
		h.apologize(c)
		return
	}
	sessionID := callSessionID(callSID)

	if _, err := h.agent.StartSession(c.Request.Context(), sessionID, callSID, from); err != nil {
		h.logger.Error("Failed to start call session", zap.String("callSid", callSID), zap.Error(err))
		h.apologize(c)
		return
	}
	h.logger.Info("Incoming call", zap.String("callSid", callSID), zap.String("from", from))

	h.writeTwiML(c,
		h.gather(sessionID, sayText(h.agent.Greeting())),
		&twiml.VoiceSay{Message: "I didn't hear anything. Please call back when you're ready. Goodbye!", Voice: "alice", Language: "en-US"},
		&twiml.VoiceHangup{},
	)
}

// ProcessSpeech runs one conversational turn for a Gather result.
func (h *VoiceHandler) ProcessSpeech(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = callSessionID(c.PostForm("CallSid"))
	}

	text := strings.TrimSpace(c.PostForm("SpeechResult"))
	confidence := parseConfidence(c.PostForm("Confidence"))
	recordingURL := c.PostForm("RecordingUrl")

	if (text == "" || confidence < sttFallbackConfidence) && recordingURL != "" && h.stt != nil {
		alt, altConfidence, err := h.stt.TranscribeRecording(ctx, recordingURL)
		switch {
		case err != nil:
			h.logger.Warn("Recording transcription failed", zap.String("sessionID", sessionID), zap.Error(err))
		case alt != "" && float64(altConfidence) > confidence:
			h.logger.Info("Using recording transcription",
				zap.String("sessionID", sessionID),
				zap.Float64("twilioConfidence", confidence),
				zap.Float32("sttConfidence", altConfidence))
			text, confidence = alt, float64(altConfidence)
		}
	}

	if text == "" || confidence < minSpeechConfidence {
		h.logger.Info("Speech not understood", zap.String("sessionID", sessionID), zap.Float64("confidence", confidence))
		h.writeTwiML(c,
			h.gather(sessionID, sayText("Sorry, I didn't catch that. Could you please repeat?")),
			&twiml.VoiceSay{Message: "Goodbye!", Voice: "alice", Language: "en-US"},
			&twiml.VoiceHangup{},
		)
		return
	}

	reply, err := h.agent.HandleUtterance(ctx, sessionID, text)
	if err != nil {
		h.logger.Error("Failed to handle utterance", zap.String("sessionID", sessionID), zap.Error(err))
		h.apologize(c)
		return
	}

	if reply.NextState == models.StateEndingCall {
		elements := append(sayText(reply.Text), &twiml.VoiceHangup{})
		h.writeTwiML(c, elements...)
		return
	}
	h.writeTwiML(c,
		h.gather(sessionID, sayText(reply.Text)),
		&twiml.VoiceSay{Message: "Are you still there? Please call back any time. Goodbye!", Voice: "alice", Language: "en-US"},
		&twiml.VoiceHangup{},
	)
}

// PartialSpeech logs interim recognition results.
func (h *VoiceHandler) PartialSpeech(c *gin.Context) {
	h.logger.Debug("Partial speech",
		zap.String("callSid", c.PostForm("CallSid")),
		zap.String("stable", c.PostForm("StableSpeechResult")),
		zap.String("unstable", c.PostForm("UnstableSpeechResult")))
	c.Status(http.StatusNoContent)
}

// CallStatus ends the session once Twilio reports the call is over.
func (h *VoiceHandler) CallStatus(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	h.logger.Info("Call status", zap.String("callSid", callSID), zap.String("status", status))

	if callSID != "" && terminalCallStatuses[status] {
		if err := h.agent.EndSession(c.Request.Context(), callSessionID(callSID)); err != nil {
			h.logger.Error("Failed to end call session", zap.String("callSid", callSID), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *VoiceHandler) gather(sessionID string, prompt []twiml.Element) *twiml.VoiceGather {
	return &twiml.VoiceGather{
		Input:                 "speech",
		Action:                processSpeechPath + "?session_id=" + url.QueryEscape(sessionID),
		Method:                http.MethodPost,
		Language:              h.speechLanguage,
		SpeechTimeout:         "auto",
		Timeout:               "5",
		PartialResultCallback: partialSpeechPath,
		InnerElements:         prompt,
	}
}

func (h *VoiceHandler) apologize(c *gin.Context) {
	h.writeTwiML(c,
		&twiml.VoiceSay{Message: "I'm sorry, we're having technical difficulties. Please call back later.", Voice: "alice", Language: "en-US"},
		&twiml.VoiceHangup{},
	)
}

func (h *VoiceHandler) writeTwiML(c *gin.Context, elements ...twiml.Element) {
	body, err := twiml.Voice(elements)
	if err != nil {
		h.logger.Error("Failed to render TwiML", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(body))
}

// sayText voices each language run of text with a matching voice.
func sayText(text string) []twiml.Element {
	parts := speech.SplitForSpeech(text)
	elements := make([]twiml.Element, 0, len(parts))
	for _, part := range parts {
		voice, language := speech.Voice(part.Lang)
		elements = append(elements, &twiml.VoiceSay{Message: part.Text, Voice: voice, Language: language})
	}
	return elements
}

func parseConfidence(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
