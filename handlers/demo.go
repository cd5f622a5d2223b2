package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"receptionist/models"
	"receptionist/services/speech"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// webCaller marks sessions opened from the browser demo.
const webCaller = "web"

// DemoHandler serves the browser test page and its chat endpoint.
type DemoHandler struct {
	agent    Receptionist
	shopName string
	page     *template.Template
	logger   *zap.Logger
}

func NewDemoHandler(agent Receptionist, shopName string, logger *zap.Logger) *DemoHandler {
	return &DemoHandler{
		agent:    agent,
		shopName: shopName,
		page:     template.Must(template.New("demo").Parse(demoPage)),
		logger:   logger,
	}
}

// Page renders the demo page.
func (h *DemoHandler) Page(c *gin.Context) {
	var buf bytes.Buffer
	err := h.page.Execute(&buf, map[string]string{
		"ShopName": h.shopName,
		"Greeting": h.agent.Greeting(),
	})
	if err != nil {
		h.logger.Error("Failed to render demo page", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Chat runs one turn for the browser demo, opening a session on first use.
func (h *DemoHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "web_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		if _, err := h.agent.StartSession(ctx, sessionID, "", webCaller); err != nil {
			h.logger.Error("Failed to start web session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}
	}

	reply, err := h.agent.HandleUtterance(ctx, sessionID, req.Text)
	if err != nil {
		h.logger.Error("Failed to handle web utterance", zap.String("sessionID", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, models.AIResponse{
		Response:       reply.Text,
		NextState:      reply.NextState,
		SessionID:      sessionID,
		BookingDetails: reply.Booking,
		SSML:           speech.PrepareForTTS(reply.Text),
	})
}

const demoPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.ShopName}} receptionist</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2em auto; }
#log p { margin: .4em 0; }
.you { color: #333; }
.bot { color: #0a5; }
</style>
</head>
<body>
<h1>{{.ShopName}}</h1>
<div id="log"><p class="bot">{{.Greeting}}</p></div>
<form id="form">
<input id="text" size="50" autocomplete="off" placeholder="Type or press Speak">
<button type="submit">Send</button>
<button type="button" id="speak">Speak</button>
</form>
<script>
let sessionId = "";
const log = document.getElementById("log");
const input = document.getElementById("text");

function add(cls, text) {
  const p = document.createElement("p");
  p.className = cls;
  p.textContent = text;
  log.appendChild(p);
}

function say(text) {
  if (!window.speechSynthesis) return;
  const u = new SpeechSynthesisUtterance(text);
  u.lang = /[؀-ۿ]/.test(text) ? "ar" : "en-US";
  window.speechSynthesis.speak(u);
}

async function send(text) {
  add("you", text);
  const res = await fetch("/demo/ai", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({text: text, session_id: sessionId})
  });
  const data = await res.json();
  if (!res.ok) { add("bot", data.error || "Something went wrong"); return; }
  sessionId = data.session_id;
  add("bot", data.response);
  say(data.response);
  if (data.next_state === "ending_call") { sessionId = ""; }
}

document.getElementById("form").addEventListener("submit", e => {
  e.preventDefault();
  const text = input.value.trim();
  if (text) { input.value = ""; send(text); }
});

const Recognition = window.SpeechRecognition || window.webkitSpeechRecognition;
document.getElementById("speak").addEventListener("click", () => {
  if (!Recognition) { add("bot", "Speech recognition is not supported in this browser."); return; }
  const r = new Recognition();
  r.lang = "en-US";
  r.onresult = e => send(e.results[0][0].transcript);
  r.start();
});
</script>
</body>
</html>
`
