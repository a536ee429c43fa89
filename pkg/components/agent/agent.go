// Package agent provides the LLM agent component. The agent's sub-turn
// activity streams through the run's agent trace channel.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/segmentio/ksuid"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
	"github.com/flowgraph/flowgraph/pkg/trace/agentstream"
)

const Type = "agent"

const textChunkSize = 64

// ErrPromptRequired is returned when no prompt value was provided.
var ErrPromptRequired = errors.New("agent requires a prompt")

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "Agent",
		Description: "Sends a prompt to a chat completion endpoint and streams the reply.",
		Ports: models.PortSet{
			Inputs: []models.PortSpec{
				{Name: "prompt", Label: "Prompt", Type: "string", Required: true, AllowManual: true},
				{Name: "api_key", Label: "API Key", Type: "string", Secret: true, AllowManual: true},
			},
			Outputs: []models.PortSpec{
				{Name: "text", Label: "Text", Type: "string"},
				{Name: "agent_run_id", Label: "Agent Run ID", Type: "string"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"endpoint": {
					Type:        "string",
					Description: "OpenAI-compatible chat completions URL",
				},
				"model": {
					Type:    "string",
					Default: "gpt-4o-mini",
				},
				"system": {
					Type:        "string",
					Description: "System prompt",
				},
			},
			Required: []string{"endpoint"},
		},
		Runner:  protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Retry:   &models.RetryPolicy{MaxAttempts: 2, InitialIntervalSec: 2, BackoffCoefficient: 2.0},
		Execute: execute,
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func execute(ctx context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	prompt, _ := ec.Inputs["prompt"].(string)
	if prompt == "" {
		return nil, ErrPromptRequired
	}

	endpoint, _ := ec.Parameters["endpoint"].(string)
	model, _ := ec.Parameters["model"].(string)
	system, _ := ec.Parameters["system"].(string)

	agentRunID := "agent_" + ksuid.New().String()
	stream := agentstream.NewRecorder(ec, agentRunID)
	stream.EmitMessageStart(ctx, agentRunID)

	callID := "call_" + ksuid.New().String()
	stream.EmitToolInput(ctx, callID, "chat.completions", map[string]any{
		"model":  model,
		"prompt": prompt,
	})

	text, err := complete(ctx, ec, endpoint, model, system, prompt)
	if err != nil {
		stream.EmitToolError(ctx, callID, err.Error())
		stream.EmitFinish(ctx)

		return nil, err
	}

	stream.EmitToolOutput(ctx, callID, map[string]any{"chars": len(text)})

	for start := 0; start < len(text); start += textChunkSize {
		end := start + textChunkSize
		if end > len(text) {
			end = len(text)
		}

		stream.EmitTextDelta(ctx, text[start:end])
	}

	stream.EmitData(ctx, "usage", map[string]any{"prompt_chars": len(prompt), "reply_chars": len(text)})
	stream.EmitFinish(ctx)

	return map[string]any{
		"text":         text,
		"agent_run_id": agentRunID,
	}, nil
}

func complete(ctx context.Context, ec protocol.ExecutionContext, endpoint, model, system, prompt string) (string, error) {
	messages := []map[string]string{}
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}

	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	client := resty.New().SetTimeout(2 * time.Minute)

	request := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"model": model, "messages": messages})

	apiKey, _ := ec.Inputs["api_key"].(string)
	if apiKey == "" && ec.Secrets != nil {
		if value, err := ec.Secrets.GetSecret(ctx, "agent_api_key"); err == nil {
			apiKey = value
		}
	}

	if apiKey != "" {
		request.SetHeader("Authorization", "Bearer "+apiKey)
	}

	var parsed chatResponse

	resp, err := request.SetResult(&parsed).SetError(&parsed).Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if resp.IsError() {
		if parsed.Error != nil {
			return "", fmt.Errorf("completion rejected: %s", parsed.Error.Message)
		}

		return "", fmt.Errorf("completion rejected: %s", resp.Status())
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
