// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package captions annotates each hop of a resolved path with a short
// natural-language description of the connection, generated by an
// OpenAI-compatible chat model. Captioning is strictly best-effort: no
// API key disables it, and any failure degrades to an uncaptioned path.
package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wikipath/wikipath/pkg/logging"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 10 * time.Second

	systemPrompt = "You describe why one Wikipedia article links to another. " +
		"Given an ordered chain of article titles about people, return ONLY a raw JSON array of strings, " +
		"one per adjacent pair, each a single short sentence naming the most likely factual connection " +
		"(family, collaboration, succession, rivalry). No markdown, no explanations."
)

// chatClient is the slice of the OpenAI client the captioner uses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures a Captioner.
type Config struct {
	// APIKey enables captioning. Empty means disabled.
	APIKey string

	// BaseURL overrides the OpenAI endpoint for compatible providers.
	BaseURL string

	// Model defaults to gpt-4o-mini.
	Model string

	// Timeout bounds one captioning call.
	Timeout time.Duration

	Logger *logging.Logger
}

// Captioner generates per-edge captions for a path. A nil or disabled
// Captioner is usable and produces no captions.
type Captioner struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// New creates a Captioner. Returns a disabled one when no API key is
// configured.
func New(cfg Config) *Captioner {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Captioner{model: cfg.Model, timeout: cfg.Timeout, logger: cfg.Logger}
	if cfg.APIKey == "" {
		cfg.Logger.Info("captioning disabled, no API key configured")
		return c
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	c.client = openai.NewClientWithConfig(clientCfg)
	return c
}

// Enabled reports whether captioning will run.
func (c *Captioner) Enabled() bool {
	return c != nil && c.client != nil
}

// CaptionPath returns one caption per edge of path (len(path)-1
// entries), or nil when captioning is disabled or fails. The result
// never carries an error: a finished search must not fail because a
// caption did.
func (c *Captioner) CaptionPath(ctx context.Context, path []string) []string {
	if !c.Enabled() || len(path) < 2 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: formatChain(path)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.Warn("caption generation failed", "error", err.Error())
		return nil
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("caption model returned no choices")
		return nil
	}

	captions := parseCaptions(resp.Choices[0].Message.Content)
	if len(captions) != len(path)-1 {
		c.logger.Warn("caption count mismatch",
			"want", len(path)-1,
			"got", len(captions),
		)
		return nil
	}
	return captions
}

func formatChain(path []string) string {
	var b strings.Builder
	for i, title := range path {
		if i > 0 {
			b.WriteString(" -> ")
		}
		fmt.Fprintf(&b, "%q", title)
	}
	return b.String()
}

// parseCaptions tolerates models that wrap the JSON array in a
// markdown fence despite instructions.
func parseCaptions(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var captions []string
	if err := json.Unmarshal([]byte(content), &captions); err != nil {
		return nil
	}
	return captions
}
