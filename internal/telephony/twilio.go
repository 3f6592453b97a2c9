package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// TwilioProvider places calls through the Twilio REST API directly.
// No SDK: the surface we need is two endpoints with form/JSON payloads.
//
// A token-bucket limiter sits in front of every request so a burst of timer
// fires cannot trip the provider's rate limiting.

type TwilioProvider struct {
	accountSID string
	authToken  string
	fromNumber string

	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// BaseURL overrides the Twilio API root; used by tests.
	BaseURL string

	// Timeout bounds each API request end-to-end.
	Timeout time.Duration

	// RequestsPerSecond caps outbound API traffic. Zero means 1 rps.
	RequestsPerSecond float64
}

// ringTimeoutSeconds is how long the callee's phone rings before giving up.
const ringTimeoutSeconds = 20

func NewTwilioProvider(cfg TwilioConfig) *TwilioProvider {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.twilio.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    base,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	if p.accountSID == "" || p.authToken == "" || p.fromNumber == "" {
		return &GatewayError{Message: "twilio credentials not configured"}
	}
	return nil
}

// twilioCall is the subset of Twilio's call resource we consume.
// Duration comes back as a string in the JSON payload.
type twilioCall struct {
	Sid       string `json:"sid"`
	Status    string `json:"status"`
	To        string `json:"to"`
	From      string `json:"from"`
	Duration  string `json:"duration"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if err := p.HealthCheck(ctx); err != nil {
		return PlaceCallResult{}, err
	}
	if !ValidDestination(req.To) {
		return PlaceCallResult{}, &GatewayError{Message: fmt.Sprintf("invalid destination %q", req.To)}
	}

	twiml, err := RenderEscapeMessage(req.SpokenText)
	if err != nil {
		return PlaceCallResult{}, err
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", p.fromNumber)
	form.Set("Twiml", twiml)
	form.Set("Timeout", strconv.Itoa(ringTimeoutSeconds))
	// Never record escape calls.
	form.Set("Record", "false")

	var call twilioCall
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	if err := p.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), &call); err != nil {
		return PlaceCallResult{}, err
	}

	return PlaceCallResult{
		ProviderCallID: call.Sid,
		From:           call.From,
		To:             call.To,
		Status:         call.Status,
	}, nil
}

func (p *TwilioProvider) GetCallStatus(ctx context.Context, providerCallID string) (CallStatus, error) {
	if err := p.HealthCheck(ctx); err != nil {
		return CallStatus{}, err
	}
	if providerCallID == "" {
		return CallStatus{}, ErrCallNotFound
	}

	var call twilioCall
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", p.baseURL, p.accountSID, url.PathEscape(providerCallID))
	if err := p.do(ctx, http.MethodGet, endpoint, nil, &call); err != nil {
		return CallStatus{}, err
	}

	out := CallStatus{
		ProviderCallID: call.Sid,
		Status:         call.Status,
	}
	if n, err := strconv.Atoi(call.Duration); err == nil {
		out.DurationSeconds = n
	}
	out.StartTime = parseTwilioTime(call.StartTime)
	out.EndTime = parseTwilioTime(call.EndTime)
	return out, nil
}

// do executes one rate-limited API request and decodes the response into out.
// Non-2xx responses become *GatewayError.
func (p *TwilioProvider) do(ctx context.Context, method, endpoint string, body io.Reader, out *twilioCall) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return &GatewayError{Message: "rate limit wait aborted: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("telephony: build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if method == http.MethodGet && resp.StatusCode == http.StatusNotFound {
		return ErrCallNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var te twilioError
		_ = json.NewDecoder(resp.Body).Decode(&te)
		code := te.Code
		if code == 0 {
			code = resp.StatusCode
		}
		msg := te.Message
		if msg == "" {
			msg = resp.Status
		}
		return &GatewayError{Code: code, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Message: "decode response: " + err.Error()}
	}
	return nil
}

// Twilio timestamps use RFC1123 with a numeric zone.
func parseTwilioTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return nil
	}
	return &t
}
