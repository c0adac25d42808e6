// Package llm wraps the OpenAI chat completion API behind the small surface
// the review pipeline needs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minsukang/codementor/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// Config for the LLM client
type Config struct {
	APIKey      string
	Model       string  // default: gpt-4o
	Temperature float32 // default: 0.3
	MaxTokens   int     // default: 4096
}

// Client wraps the OpenAI API client
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	log         logger.Logger
}

// NewClient creates a new LLM client
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if log == nil {
		log = logger.Default()
	}

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         log,
	}
}

// Complete sends a single-turn completion request and returns the raw text.
func (c *Client) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	messages := []openai.ChatCompletionMessage{}

	if len(systemPrompt) > 0 && systemPrompt[0] != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt[0],
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		c.log.Error("chat completion failed", "model", c.model, "duration", duration.String(), "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	c.log.Info("chat completion done",
		"model", c.model, "tokens", resp.Usage.TotalTokens, "duration", duration.String())

	return resp.Choices[0].Message.Content, nil
}

// Stream sends a streaming completion request. Chunks arrive on the returned
// channel; a terminal error, if any, on the error channel. Both close when
// the stream ends.
func (c *Client) Stream(ctx context.Context, prompt string, systemPrompt string) (<-chan string, <-chan error) {
	chunks := make(chan string, 100)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		messages := []openai.ChatCompletionMessage{}
		if systemPrompt != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		})

		stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
			Stream:      true,
		})
		if err != nil {
			errc <- fmt.Errorf("failed to create stream: %w", err)
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				errc <- fmt.Errorf("stream error: %w", err)
				return
			}

			if len(response.Choices) > 0 {
				if content := response.Choices[0].Delta.Content; content != "" {
					chunks <- content
				}
			}
		}
	}()

	return chunks, errc
}
