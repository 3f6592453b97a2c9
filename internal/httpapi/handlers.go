package httpapi

import (
	"errors"
	"net/http"
	"time"

	"escapecall/internal/calls"
	"escapecall/internal/reporting"
	"escapecall/internal/scheduler"
	"escapecall/internal/telephony"
	"escapecall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Scheduler is the slice of the call scheduler the HTTP layer needs.
// Kept as an interface so handler tests can substitute a fake.
type Scheduler interface {
	Schedule(destination, spokenText string, delayMinutes int) (calls.ScheduledCall, error)
	ListPending() []calls.ScheduledCall
	ListHistory() []calls.ScheduledCall
	Cancel(id string) (calls.ScheduledCall, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Scheduler Scheduler
	Provider  telephony.Provider
	Reports   *reporting.Service

	// DefaultMessage is spoken when a request carries no message.
	DefaultMessage string

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h Handlers) message(reqMessage string) string {
	if reqMessage != "" {
		return reqMessage
	}
	if h.DefaultMessage != "" {
		return h.DefaultMessage
	}
	return telephony.DefaultEscapeMessage
}

// envelope is the uniform response wrapper the browser client expects.
type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (h Handlers) ok(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Message: message, Timestamp: h.now()})
}

func (h Handlers) okList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Count: &count, Timestamp: h.now()})
}

func (h Handlers) fail(c *gin.Context, status int, errText, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: errText, Message: message, Timestamp: h.now()})
}

// --- Immediate calls ---

type immediateCallRequest struct {
	Destination string `json:"destination"`
	SpokenText  string `json:"spokenText"`
}

type immediateCallResponse struct {
	// CallID mirrors ProviderCallID: immediate calls are never persisted,
	// so the provider id is the only identifier they have.
	CallID         string `json:"callId"`
	ProviderCallID string `json:"providerCallId"`
	To             string `json:"to"`
	From           string `json:"from"`
	Status         string `json:"status"`
}

// ImmediateCall places an escape call right now, bypassing the registry.
func (h Handlers) ImmediateCall(c *gin.Context) {
	log := logger.FromGin(c)

	var req immediateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request", "Request body must be valid JSON")
		return
	}
	if !telephony.ValidDestination(req.Destination) {
		h.fail(c, http.StatusBadRequest, "invalid destination",
			"Destination must start with + and include the country code, e.g. +15551234567")
		return
	}

	res, err := h.Provider.PlaceCall(c.Request.Context(), telephony.PlaceCallRequest{
		To:         req.Destination,
		SpokenText: h.message(req.SpokenText),
	})
	if err != nil {
		log.Error("immediate call failed", "destination", req.Destination, "err", err)
		var ge *telephony.GatewayError
		if errors.As(err, &ge) {
			h.fail(c, http.StatusBadGateway, "gateway error", "Failed to place escape call")
			return
		}
		h.fail(c, http.StatusInternalServerError, "internal error", "Failed to place escape call")
		return
	}

	h.ok(c, immediateCallResponse{
		CallID:         res.ProviderCallID,
		ProviderCallID: res.ProviderCallID,
		To:             res.To,
		From:           res.From,
		Status:         res.Status,
	}, "Escape call placed successfully")
}

// --- Scheduled calls ---

type scheduleCallRequest struct {
	Destination  string `json:"destination"`
	SpokenText   string `json:"spokenText"`
	DelayMinutes int    `json:"delayMinutes"`
}

type scheduleCallResponse struct {
	CallID        string       `json:"callId"`
	ScheduledTime time.Time    `json:"scheduledTime"`
	Status        calls.Status `json:"status"`
}

func (h Handlers) ScheduleCall(c *gin.Context) {
	var req scheduleCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request", "Request body must be valid JSON")
		return
	}

	entry, err := h.Scheduler.Schedule(req.Destination, req.SpokenText, req.DelayMinutes)
	switch {
	case errors.Is(err, scheduler.ErrInvalidDestination):
		h.fail(c, http.StatusBadRequest, "invalid destination",
			"Destination must start with + and include the country code, e.g. +15551234567")
		return
	case errors.Is(err, scheduler.ErrInvalidDelay):
		h.fail(c, http.StatusBadRequest, "invalid delay", "Delay must be between 1 and 1440 minutes (24 hours)")
		return
	case err != nil:
		h.fail(c, http.StatusInternalServerError, "internal error", "Failed to schedule escape call")
		return
	}

	h.ok(c, scheduleCallResponse{
		CallID:        entry.ID,
		ScheduledTime: entry.ScheduledTime,
		Status:        entry.Status,
	}, "Call scheduled for "+entry.ScheduledTime.Format(time.RFC3339))
}

func (h Handlers) ListScheduled(c *gin.Context) {
	pending := h.Scheduler.ListPending()
	h.okList(c, pending, len(pending))
}

func (h Handlers) ListHistory(c *gin.Context) {
	history := h.Scheduler.ListHistory()
	h.okList(c, history, len(history))
}

func (h Handlers) CancelScheduled(c *gin.Context) {
	id := c.Param("callId")

	entry, err := h.Scheduler.Cancel(id)
	switch {
	case errors.Is(err, scheduler.ErrNotFound):
		h.fail(c, http.StatusNotFound, "not found", "Scheduled call not found")
		return
	case errors.Is(err, scheduler.ErrInvalidState):
		h.fail(c, http.StatusConflict, "invalid state", "Call cannot be cancelled - already executed or cancelled")
		return
	case err != nil:
		h.fail(c, http.StatusInternalServerError, "internal error", "Failed to cancel scheduled call")
		return
	}

	h.ok(c, entry, "Scheduled call cancelled successfully")
}

// --- Provider status passthrough ---

func (h Handlers) CallStatus(c *gin.Context) {
	sid := c.Param("callSid")

	st, err := h.Provider.GetCallStatus(c.Request.Context(), sid)
	if err != nil {
		if errors.Is(err, telephony.ErrCallNotFound) {
			h.fail(c, http.StatusNotFound, "not found", "No call with that id at the provider")
			return
		}
		logger.FromGin(c).Error("call status lookup failed", "provider_call_id", sid, "err", err)
		h.fail(c, http.StatusBadGateway, "gateway error", "Failed to get call status")
		return
	}

	h.ok(c, st, "")
}

// --- TwiML ---

type twimlRequest struct {
	Message string `json:"message"`
}

// EscapeMessageTwiML returns the "say this, then hang up" document the
// provider renders as speech. GET takes ?message=, POST takes a JSON body.
func (h Handlers) EscapeMessageTwiML(c *gin.Context) {
	message := c.Query("message")
	if message == "" && c.Request.Method == http.MethodPost {
		var req twimlRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			message = req.Message
		}
	}

	doc, err := telephony.RenderEscapeMessage(h.message(message))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "internal error", "Failed to render message")
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(doc))
}

// --- Reporting ---

func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reports == nil {
		h.fail(c, http.StatusInternalServerError, "internal error", "Reporting not configured")
		return
	}
	out, err := h.Reports.Summarize()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "internal error", "Failed to summarize calls")
		return
	}
	h.ok(c, out, "")
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"message":        "Escape Call API is running",
		"scheduledCalls": len(h.Scheduler.ListHistory()),
	})
}
