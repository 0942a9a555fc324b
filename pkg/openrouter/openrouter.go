// Package openrouter sends chat completions to the OpenRouter API.
// In the browser it goes through fetch via syscall/js; native builds use the
// OpenAI-compatible client.
package openrouter

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultTitle   = "Super Okai"
)

var (
	ErrMissingKey    = errors.New("openrouter: API key is missing")
	ErrEmptyResponse = errors.New("openrouter: no response content received")
)

// Config holds client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Referer string
	Title   string
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c Config) title() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError is a non-success answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	switch e.Status {
	case 401:
		return "openrouter: invalid API key"
	case 429:
		return "openrouter: rate limit exceeded, try again later"
	}
	if e.Message == "" {
		return fmt.Sprintf("openrouter: HTTP %d", e.Status)
	}
	return fmt.Sprintf("openrouter: HTTP %d: %s", e.Status, e.Message)
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func encodeRequest(model string, msgs []Message) ([]byte, error) {
	body, err := json.Marshal(chatRequest{Model: model, Messages: msgs})
	if err != nil {
		return nil, fmt.Errorf("openrouter: encode request: %w", err)
	}
	return body, nil
}

// parseCompletion extracts the first choice's content from a response body.
func parseCompletion(raw []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("openrouter: parse response: %w", err)
	}
	if resp.Error != nil {
		return "", &APIError{Status: resp.Error.Code, Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
