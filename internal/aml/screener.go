package aml

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"letting-compliance/internal/common/config"
	apperrors "letting-compliance/internal/common/errors"
	commonhttp "letting-compliance/internal/common/http"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

// ProviderMatch is one hit returned by a screening provider.
type ProviderMatch struct {
	MatchType   models.MatchType `json:"type"`
	MatchedName string           `json:"name"`
	MatchScore  float64          `json:"score"`
	Source      string           `json:"source,omitempty"`
	Details     string           `json:"details,omitempty"`
}

// Screener checks a subject against sanctions, PEP and adverse media lists.
type Screener interface {
	Screen(ctx context.Context, subject models.ScreeningSubject) ([]ProviderMatch, error)
}

type screenRequest struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Country     string `json:"country,omitempty"`
}

type screenResponse struct {
	Matches []ProviderMatch `json:"matches"`
}

// HTTPScreener calls a JSON screening API, retrying transient failures with
// exponential backoff.
type HTTPScreener struct {
	client     *commonhttp.Client
	baseURL    string
	apiKey     string
	maxRetries int
	logger     logger.Logger
	newBackOff func() backoff.BackOff
}

func NewHTTPScreener(cfg config.ScreeningConfig, log logger.Logger) *HTTPScreener {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPScreener{
		client:     commonhttp.NewClient(timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		logger:     log,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

func (s *HTTPScreener) Screen(ctx context.Context, subject models.ScreeningSubject) ([]ProviderMatch, error) {
	if s.baseURL == "" {
		return nil, apperrors.NewScreeningProviderError(errors.New("screening provider base URL not configured"))
	}

	req := screenRequest{
		FullName:    subject.FullName,
		Nationality: subject.Nationality,
		Country:     subject.Country,
	}
	if subject.DateOfBirth != nil {
		req.DateOfBirth = subject.DateOfBirth.Format("2006-01-02")
	}

	var (
		resp     screenResponse
		attempts int
	)
	operation := func() error {
		attempts++
		resp = screenResponse{}
		err := s.client.PostJSON(ctx, s.baseURL+"/v1/screen", map[string]string{"X-API-Key": s.apiKey}, req, &resp)
		if err == nil {
			return nil
		}

		var statusErr *commonhttp.StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return backoff.Permanent(err)
		}
		s.logger.Warn("screening request failed, retrying", map[string]interface{}{
			"attempt": attempts,
			"error":   err,
		})
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("screening-provider", err)
		}
		return nil, apperrors.NewScreeningProviderError(fmt.Errorf("after %d attempt(s): %w", attempts, err))
	}

	for _, m := range resp.Matches {
		if !m.MatchType.Valid() {
			return nil, apperrors.NewScreeningProviderError(fmt.Errorf("unknown match type %q", m.MatchType))
		}
		if m.MatchScore < 0 || m.MatchScore > 100 {
			return nil, apperrors.NewScreeningProviderError(fmt.Errorf("match score %.2f out of range", m.MatchScore))
		}
	}
	return resp.Matches, nil
}
