package handlers

import (
	"net/http"

	"receptionist/utils"

	"github.com/gin-gonic/gin"
)

// Features reports which optional integrations are active.
type Features struct {
	Classifier   string `json:"classifier"`
	Calendar     string `json:"calendar"`
	SessionStore string `json:"session_store"`
	SpeechToText bool   `json:"speech_to_text"`
	CallArchive  bool   `json:"call_archive"`
}

type HealthHandler struct {
	shopName string
	features Features
}

func NewHealthHandler(shopName string, features Features) *HealthHandler {
	return &HealthHandler{shopName: shopName, features: features}
}

// Root is the public landing endpoint.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"message":  "Hi, I'm the " + h.shopName + " receptionist",
		"features": h.features,
	})
}

// Health reports the last backend health snapshot. Any unreachable backend
// marks the service degraded.
func (h *HealthHandler) Health(c *gin.Context) {
	snapshot := utils.GetHealthStatus()
	status := "healthy"
	if (snapshot.Redis != nil && !*snapshot.Redis) || (snapshot.Mongo != nil && !*snapshot.Mongo) {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"features": h.features,
		"backends": snapshot,
	})
}
