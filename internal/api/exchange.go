package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/klosachat/internal/errors"
	"github.com/diogo/klosachat/internal/models"
)

const (
	// maxResponseSize bounds how much of a reply body is read
	maxResponseSize = 4 << 20
	// maxErrorBody bounds the body kept on status errors
	maxErrorBody = 4096
)

var errClientClosed = errors.New("client is closed")

// Exchange sends the full ordered history to the endpoint and returns the
// reply text. Every failure is an *apierrors.ExchangeError.
func (c *Client) Exchange(ctx context.Context, history []models.Message) (string, error) {
	if c.IsClosed() {
		return "", apierrors.NewNetworkError(c.endpoint, errClientClosed)
	}

	payload, err := models.NewExchangeRequest(history)
	if err != nil {
		return "", apierrors.NewDecodeError(c.endpoint, "failed to build payload", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", apierrors.NewDecodeError(c.endpoint, "failed to marshal payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apierrors.NewNetworkError(c.endpoint, fmt.Errorf("failed to create request: %w", err))
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	c.log.Debug().Int("messages", len(history)).Int("bytes", len(body)).Msg("sending exchange")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Dur("latency", time.Since(start)).Msg("exchange request failed")
		return "", apierrors.NewNetworkError(c.endpoint, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody := readBody(resp.Body, maxErrorBody)
		c.log.Warn().Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("exchange rejected")
		return "", apierrors.NewStatusError(resp.StatusCode, c.endpoint, string(errorBody))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", apierrors.NewNetworkError(c.endpoint, fmt.Errorf("failed to read response: %w", err))
	}

	reply, err := parseReply(c.endpoint, data)
	if err != nil {
		c.log.Warn().Err(err).Int("status", resp.StatusCode).Msg("exchange response unusable")
		return "", err
	}

	c.log.Debug().Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Int("reply_len", len(reply)).Msg("exchange settled")
	return reply, nil
}

// parseReply extracts the reply field from a response body.
// The body must be a JSON object whose reply field is a string.
func parseReply(endpoint string, data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", apierrors.NewDecodeError(endpoint, "response is not valid JSON", nil)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return "", apierrors.NewDecodeError(endpoint, "response is not a JSON object", nil)
	}

	field := parsed.Get(models.ReplyField)
	if !field.Exists() || field.Type != gjson.String {
		return "", apierrors.NewMissingFieldError(endpoint, models.ReplyField)
	}

	return field.String(), nil
}

func readBody(r io.Reader, limit int64) []byte {
	data, _ := io.ReadAll(io.LimitReader(r, limit))
	return data
}
