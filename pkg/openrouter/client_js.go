//go:build js && wasm

package openrouter

import (
	"context"
	"fmt"
	"syscall/js"
)

// Client posts completions through the browser's fetch.
type Client struct {
	cfg Config
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingKey
	}
	if cfg.Referer == "" {
		cfg.Referer = js.Global().Get("window").Get("location").Get("origin").String()
	}
	return &Client{cfg: cfg}, nil
}

// Complete sends msgs to model and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, model string, msgs []Message) (string, error) {
	body, err := encodeRequest(model, msgs)
	if err != nil {
		return "", err
	}
	raw, err := c.fetch(ctx, c.cfg.baseURL()+"/chat/completions", string(body))
	if err != nil {
		return "", err
	}
	return parseCompletion([]byte(raw))
}

type fetchResult struct {
	body string
	err  error
}

// fetch performs an authenticated POST and waits for the response text.
func (c *Client) fetch(ctx context.Context, url, body string) (string, error) {
	fetch := js.Global().Get("fetch")
	if fetch.IsUndefined() {
		return "", fmt.Errorf("openrouter: fetch not available")
	}

	headers := js.Global().Get("Object").New()
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("HTTP-Referer", c.cfg.Referer)
	headers.Set("X-Title", c.cfg.title())

	options := js.Global().Get("Object").New()
	options.Set("method", "POST")
	options.Set("headers", headers)
	options.Set("body", body)

	resultCh := make(chan fetchResult, 1)

	var textThen js.Func
	then := js.FuncOf(func(this js.Value, args []js.Value) any {
		response := args[0]
		status := response.Get("status").Int()
		ok := response.Get("ok").Bool()
		textThen = js.FuncOf(func(this js.Value, args []js.Value) any {
			text := args[0].String()
			if !ok {
				resultCh <- fetchResult{err: &APIError{Status: status, Message: text}}
				return nil
			}
			resultCh <- fetchResult{body: text}
			return nil
		})
		response.Call("text").Call("then", textThen)
		return nil
	})
	defer then.Release()

	catch := js.FuncOf(func(this js.Value, args []js.Value) any {
		resultCh <- fetchResult{err: fmt.Errorf("openrouter: %s", args[0].Get("message").String())}
		return nil
	})
	defer catch.Release()

	fetch.Invoke(url, options).Call("then", then).Call("catch", catch)

	select {
	case res := <-resultCh:
		if textThen.Truthy() {
			textThen.Release()
		}
		return res.body, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
