package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HealthPath and PredictPath are appended to the API URL
const (
	HealthPath  = "/healthcheck"
	PredictPath = "/predict_bandgap"
)

// HealthResponse is the body returned by the health check endpoint
type HealthResponse struct {
	Status string `json:"status"`
}

// CheckAPIHealth asks the backend whether it is up. The outcome is committed
// to APIStatus (and Error on failure) and also returned to the caller.
func (s *Store) CheckAPIHealth(ctx context.Context) (string, error) {
	status, err := s.fetchHealth(ctx)
	if err != nil {
		message := err.Error()
		Logger.Warn("Health check failed", "url", s.apiURL+HealthPath, "error", message)
		s.SetAPIStatus("Error: " + message)
		s.SetError(message)
		return "", err
	}

	Logger.Debug("Health check succeeded", "status", status)
	s.SetAPIStatus(status)
	return status, nil
}

// PredictBandGap posts payload as multipart form data and commits the
// response body to Predictions. IsProcessing is true for the whole call and
// is reset on every path.
func (s *Store) PredictBandGap(ctx context.Context, payload PredictPayload) (Predictions, error) {
	s.SetProcessing(true)
	s.SetError("")
	defer s.SetProcessing(false)

	predictions, err := s.postPredict(ctx, payload)
	if err != nil {
		message := ErrorMessage(err)
		Logger.Error("Band gap prediction failed", "url", s.apiURL+PredictPath, "error", message)
		s.SetError(message)
		return nil, err
	}

	Logger.Info("Band gap prediction received", "bytes", len(predictions))
	s.SetPredictions(predictions)
	return predictions, nil
}

func (s *Store) fetchHealth(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+HealthPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := s.do(req)
	if err != nil {
		return "", err
	}

	return healthStatus(body), nil
}

// healthStatus reads the status from a 2xx health body. A body that is not a
// status object is still a healthy answer and becomes the status as text.
func healthStatus(body []byte) string {
	var health HealthResponse
	if err := json.Unmarshal(body, &health); err == nil {
		return health.Status
	}
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(body))
}

func (s *Store) postPredict(ctx context.Context, payload PredictPayload) (Predictions, error) {
	body, contentType, err := payload.Encode()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+PredictPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	respBody, err := s.do(req)
	if err != nil {
		return nil, err
	}
	return responsePredictions(respBody), nil
}

// do sends req and returns the body of a 2xx response
func (s *Store) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// responsePredictions keeps a JSON body untouched. Anything else is kept as a
// JSON string so the state always holds valid JSON.
func responsePredictions(body []byte) Predictions {
	if json.Valid(body) {
		return Predictions(body)
	}
	quoted, _ := json.Marshal(string(body))
	return Predictions(quoted)
}
