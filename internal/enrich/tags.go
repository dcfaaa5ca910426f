// Package enrich adds optional LLM-derived metadata to extracted records.
// Extraction itself never depends on a model being reachable; enrichment is
// best effort on top of finished records.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal chat-completion surface the tagger needs, so any
// OpenAI-compatible backend can be plugged in.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// DefaultMaxTags caps the tags requested per record.
const DefaultMaxTags = 5

// contentSnippetLen bounds how much record content is sent to the model.
const contentSnippetLen = 2000

// Tagger asks a chat model for topical tags describing a record.
type Tagger struct {
	Client Client
	Model  string
	// MaxTags caps returned tags. Zero means DefaultMaxTags.
	MaxTags int
}

// NewClient builds an OpenAI-compatible client. baseURL is optional and
// points at a self-hosted endpoint when set.
func NewClient(baseURL, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Suggest returns topical tags for the given title and content, lowercase
// and deduplicated. An error means the model call failed; callers treat that
// as "no tags", never as a failed record.
func (t *Tagger) Suggest(ctx context.Context, title, content string) ([]string, error) {
	if t.Client == nil {
		return nil, nil
	}
	max := t.MaxTags
	if max <= 0 {
		max = DefaultMaxTags
	}
	snippet := content
	if len(snippet) > contentSnippetLen {
		snippet = snippet[:contentSnippetLen]
	}

	resp, err := t.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You label documents. Reply with at most %d short topical tags, "+
					"comma separated, no numbering and no other text.", max),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Title: %s\n\n%s", title, snippet),
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("tag suggestion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("tag suggestion: empty response")
	}

	tags := parseTags(resp.Choices[0].Message.Content, max)
	log.Debug().Str("title", title).Strs("tags", tags).Msg("suggested tags")
	return tags, nil
}

// parseTags splits a comma-separated model reply into clean tags.
func parseTags(reply string, max int) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range strings.Split(reply, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		tag = strings.Trim(tag, `."'`)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) >= max {
			break
		}
	}
	return tags
}
