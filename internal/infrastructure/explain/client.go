// Package explain implements the HTTP client for the external
// natural-language explanation service.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/config"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// KeyProvider supplies the API key for the explanation service. The key may
// rotate at runtime, so it is read per request.
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKeyProvider serves a fixed key from configuration.
type StaticKeyProvider string

func (p StaticKeyProvider) APIKey(context.Context) (string, error) {
	return string(p), nil
}

type explainRequestBody struct {
	ProfileID     uuid.UUID `json:"profile_id"`
	ActivityType  string    `json:"activity_type"`
	Description   string    `json:"description"`
	Score         int       `json:"score"`
	PreviousScore int       `json:"previous_score"`
	ThreatLevel   string    `json:"threat_level"`
}

type explainResponseBody struct {
	Explanation string    `json:"explanation"`
	ProfileID   uuid.UUID `json:"profile_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Client calls the explanation service over HTTP. Every failure mode comes
// back as an explicit error; the caller decides that an ingestion pipeline
// survives without an explanation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keys       KeyProvider
	logger     logger.Logger
}

// NewClient creates the explanation service client. The HTTP client carries
// its own timeout as a backstop for callers that pass an unbounded context.
func NewClient(cfg *config.ExplainConfig, keys KeyProvider, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.ExplainDefaultTimeout
	}
	if keys == nil {
		keys = StaticKeyProvider(cfg.APIKey)
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		keys:       keys,
		logger:     log,
	}
}

// Generate requests a human-readable explanation for a score change.
func (c *Client) Generate(ctx context.Context, req domainservice.ExplainRequest) (string, error) {
	body, err := json.Marshal(explainRequestBody{
		ProfileID:     req.ProfileID,
		ActivityType:  string(req.ActivityType),
		Description:   req.Description,
		Score:         req.Score,
		PreviousScore: req.PreviousScore,
		ThreatLevel:   string(req.ThreatLevel),
	})
	if err != nil {
		return "", errors.ErrExplanationUnavailable(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/explanations", bytes.NewReader(body))
	if err != nil {
		return "", errors.ErrExplanationUnavailable(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return "", errors.ErrExplanationUnavailable(err)
	}
	if key != "" {
		httpReq.Header.Set("X-API-Key", key)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.ErrExplanationUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", errors.ErrExplanationUnavailable(
			fmt.Errorf("explanation service returned status %d", resp.StatusCode))
	}

	var decoded explainResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.ErrExplanationUnavailable(err)
	}
	if decoded.Explanation == "" {
		return "", errors.ErrExplanationUnavailable(fmt.Errorf("explanation service returned an empty explanation"))
	}

	return decoded.Explanation, nil
}

var _ domainservice.ExplanationService = (*Client)(nil)
