package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Message is one turn of the running intake conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client wraps the OpenAI chat API for the intake conversation.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		api:         openai.NewClient(apiKey),
		model:       model,
		temperature: 0.5,
	}
}

// Complete sends the running history and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, history []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ExtractJSON pulls the trailing JSON object out of an assistant reply and
// decodes it. The reply must start with the object; extra prose before it
// means intake is not complete.
func ExtractJSON(reply string) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &fields); err != nil {
		return nil, false
	}
	return flatten(fields, ""), true
}

// flatten collapses nested objects into "parent - child" keys, matching the
// shape the profile builder's alias resolution expects.
func flatten(fields map[string]interface{}, prefix string) map[string]interface{} {
	out := map[string]interface{}{}
	for key, value := range fields {
		full := key
		if prefix != "" {
			full = prefix + " - " + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flatten(nested, full) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}
