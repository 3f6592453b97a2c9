package main

import (
	"escapecall/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
//
// Paths live under /api/twilio because the browser client depends on them.
func registerRoutes(r *gin.Engine, h httpapi.Handlers) {
	r.GET("/api/health", h.Health)

	api := r.Group("/api/twilio")
	{
		api.POST("/call/immediate", h.ImmediateCall)
		api.POST("/call/schedule", h.ScheduleCall)
		api.GET("/calls/scheduled", h.ListScheduled)
		api.GET("/calls/history", h.ListHistory)
		api.GET("/calls/summary", h.CallsSummary)
		api.DELETE("/call/schedule/:callId", h.CancelScheduled)
		api.GET("/call/status/:callSid", h.CallStatus)

		// The provider fetches call content from here when a TwiML URL is
		// used instead of an inline document.
		api.GET("/twiml/escape-message", h.EscapeMessageTwiML)
		api.POST("/twiml/escape-message", h.EscapeMessageTwiML)
	}
}
