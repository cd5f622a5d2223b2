package routes

import (
	"time"

	"receptionist/handlers"
	"receptionist/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterVoiceRoutes registers the Twilio webhooks.
func RegisterVoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	webhook := r.Group("/webhook")
	{
		webhook.Use(middleware.TwilioSignatureMiddleware(hb.TwilioAuthToken, hb.PublicBaseURL, logger))
		webhook.POST("/voice", hb.Voice.IncomingCall)
		webhook.POST("/process-speech", hb.Voice.ProcessSpeech)
		webhook.POST("/partial-speech", hb.Voice.PartialSpeech)
		webhook.POST("/status", hb.Voice.CallStatus)
	}
}

// RegisterDemoRoutes registers the browser test page.
func RegisterDemoRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	demo := r.Group("/demo")
	{
		demo.Use(middleware.RateLimitMiddleware(hb.RequestsPerMin, logger))
		demo.GET("", hb.Demo.Page)
		demo.POST("/ai", hb.Demo.Chat)
	}
}

// RegisterAdminRoutes sets up the shop owner's endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	if hb.Admin == nil {
		logger.Info("Admin API disabled: ADMIN_PASSWORD_HASH not set")
		return
	}
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/login", middleware.RateLimitMiddleware(10, logger), hb.Admin.Login)

		protected := adminGroup.Group("")
		protected.Use(middleware.JWTAuthAdminMiddleware(hb.JWTSecret))
		protected.GET("/appointments/upcoming", hb.Admin.UpcomingAppointments)
		protected.DELETE("/appointments/:eventID", hb.Admin.CancelAppointment)
		protected.GET("/calls", hb.Admin.ListCalls)
		protected.GET("/sessions/:sessionID", hb.Admin.GetSession)
	}
}

// RegisterHealthRoutes registers the landing and health-check endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/", hb.Health.Root)
	r.GET("/health", hb.Health.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoutes(r, hb)
	RegisterVoiceRoutes(r, hb, logger)
	RegisterDemoRoutes(r, hb, logger)
	RegisterAdminRoutes(r, hb, logger)
}
