package telephony

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Provider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider SDK or HTTP calls outside telephony adapters.
// - Keep request/response types provider-agnostic; adapters translate.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
	GetCallStatus(ctx context.Context, providerCallID string) (CallStatus, error)
}

// PlaceCallRequest asks the provider to dial a number and speak a message.
type PlaceCallRequest struct {
	// To is the destination in E.164 form.
	To string `json:"to"`

	// SpokenText is the message converted to speech during the call.
	// Must be non-empty; callers apply the default message before this point.
	SpokenText string `json:"spokenText"`
}

// PlaceCallResult is the provider's acknowledgement of an accepted call.
type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"providerCallId"`

	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// CallStatus is the provider's current view of a placed call.
type CallStatus struct {
	ProviderCallID string `json:"providerCallId"`
	Status         string `json:"status"`

	// DurationSeconds is zero until the call completes.
	DurationSeconds int `json:"duration"`

	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// ErrCallNotFound indicates the provider has no record of the given call id.
var ErrCallNotFound = errors.New("telephony: call not found")

// GatewayError is a transport-level or provider-side rejection
// (invalid destination, unauthenticated, rate-limited, timeout).
type GatewayError struct {
	// Code is the provider's error code if one was returned, else the HTTP status.
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("telephony: gateway error %d: %s", e.Code, e.Message)
	}
	return "telephony: gateway error: " + e.Message
}

// destinationRe matches E.164: "+" then 2-15 digits, no leading zero.
var destinationRe = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidDestination reports whether a destination number is dialable.
// Adapters reject invalid destinations before contacting the provider.
func ValidDestination(number string) bool {
	return destinationRe.MatchString(number)
}
