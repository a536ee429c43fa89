// Package httprequest provides the HTTP request component.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const Type = "http-request"

const (
	defaultTimeoutSeconds = 30
	maxBodyBytes          = 10 << 20
)

var (
	// ErrURLRequired is returned when no url value was provided.
	ErrURLRequired = errors.New("http request requires a url")
	// ErrServerError is returned when the server answers with a 5xx status.
	ErrServerError = errors.New("server error during http request")
)

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "HTTP Request",
		Description: "Performs an HTTP request and exposes the parsed response.",
		Ports: models.PortSet{
			Inputs: []models.PortSpec{
				{Name: "url", Label: "URL", Type: "string", Required: true, AllowManual: true},
				{Name: "body", Label: "Body", Type: "string", AllowManual: true},
				{Name: "authorization", Label: "Authorization", Type: "string", AllowManual: true, Secret: true},
			},
			Outputs: []models.PortSpec{
				{Name: "status_code", Label: "Status Code", Type: "number"},
				{Name: "body", Label: "Body", Type: "object"},
				{Name: "headers", Label: "Headers", Type: "object"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"method": {
					Type:        "string",
					Description: "HTTP method",
					Enum:        []any{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
					Default:     "GET",
				},
				"headers": {
					Type:        "object",
					Description: "Static request headers",
				},
				"timeout_seconds": {
					Type:        "number",
					Description: "Request timeout in seconds",
					Default:     defaultTimeoutSeconds,
				},
			},
		},
		Runner:  protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Retry:   &models.RetryPolicy{MaxAttempts: 3, InitialIntervalSec: 1, BackoffCoefficient: 2.0},
		Execute: execute,
	}
}

func execute(ctx context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	url, _ := ec.Inputs["url"].(string)
	if url == "" {
		return nil, ErrURLRequired
	}

	method, _ := ec.Parameters["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	timeout := time.Duration(defaultTimeoutSeconds) * time.Second
	if seconds, ok := ec.Parameters["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	var body io.Reader
	if payload, _ := ec.Inputs["body"].(string); payload != "" {
		body = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if headers, ok := ec.Parameters["headers"].(map[string]any); ok {
		for key, value := range headers {
			if str, ok := value.(string); ok {
				req.Header.Set(key, str)
			}
		}
	}

	if auth, _ := ec.Inputs["authorization"].(string); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	if ec.Logger != nil {
		ec.Logger.InfoContext(ctx, "Executing http request", "method", req.Method, "url", url)
	}

	client := &http.Client{Timeout: timeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	}

	return processResponse(resp)
}

func processResponse(resp *http.Response) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = string(raw)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        parsed,
		"headers":     headers,
	}, nil
}
