package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/shared"

	"github.com/sony/gobreaker/v2"
)

const maxResponseBytes = 1 << 20

// Client talks to the external payment processor over HTTP. A circuit
// breaker sits in front of every call so a dead processor fails fast
// instead of tying up request handlers in timeouts.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg config.PaymentConfig) *Client {
	settings := gobreaker.Settings{
		Name:        "payment-processor",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("payment circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

type openIntentRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, error) {
	payload, err := json.Marshal(openIntentRequest{
		AmountCents: amountCents,
		Currency:    currency,
		Metadata:    metadata,
	})
	if err != nil {
		return "", errs.Wrap(err, "failed to encode intent request")
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/intents", payload)
	if err != nil {
		return "", err
	}

	var resp intentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errs.Wrap(err, "failed to decode intent response")
	}
	if resp.ID == "" {
		return "", errs.New("processor returned intent without id")
	}
	return resp.ID, nil
}

func (c *Client) QueryIntent(ctx context.Context, externalRef string) (shared.IntentStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/intents/"+externalRef, nil)
	if err != nil {
		return "", err
	}

	var resp intentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errs.Wrap(err, "failed to decode intent response")
	}

	switch resp.Status {
	case "succeeded":
		return shared.IntentSucceeded, nil
	case "failed":
		return shared.IntentFailed, nil
	default:
		return shared.IntentPending, nil
	}
}

func (c *Client) Refund(ctx context.Context, externalRef string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/intents/"+externalRef+"/refund", nil)
	return err
}

// do runs one processor call through the breaker. Transport failures, 5xx
// responses and an open breaker all surface as ErrProcessorUnavailable;
// a 4xx is the processor answering no and maps to ErrRefundDeclined.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, respErr := c.httpClient.Do(req)
		if respErr != nil {
			return nil, shared.ErrProcessorUnavailable
		}
		defer func() { _ = resp.Body.Close() }()

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if readErr != nil {
			return nil, shared.ErrProcessorUnavailable
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return data, nil
		case resp.StatusCode >= 500:
			return nil, shared.ErrProcessorUnavailable
		case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
			return nil, shared.ErrRefundDeclined
		default:
			return nil, fmt.Errorf("processor rejected request: status %d", resp.StatusCode)
		}
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, shared.ErrProcessorUnavailable
		}
		return nil, err
	}
	return body, nil
}
