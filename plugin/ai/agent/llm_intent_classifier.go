package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// chatCompleter is the subset of *openai.Client used for classification.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMIntentConfig holds configuration for the LLM intent classifier.
type LLMIntentConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMIntentClassifier asks an OpenAI-compatible model about utterances the
// rules leave unknown. Rule results, including state overrides, always win.
type LLMIntentClassifier struct {
	client  chatCompleter
	model   string
	timeout time.Duration
	rules   *RuleIntentClassifier
}

// NewLLMIntentClassifier creates a new LLM-backed classifier.
func NewLLMIntentClassifier(cfg LLMIntentConfig) *LLMIntentClassifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return newLLMIntentClassifier(openai.NewClientWithConfig(clientConfig), cfg)
}

func newLLMIntentClassifier(client chatCompleter, cfg LLMIntentConfig) *LLMIntentClassifier {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMIntentClassifier{
		client:  client,
		model:   model,
		timeout: timeout,
		rules:   NewRuleIntentClassifier(),
	}
}

// Classify implements Classifier.
func (c *LLMIntentClassifier) Classify(ctx context.Context, utterance string, state DialogueState, history []string) Intent {
	intent := c.rules.Classify(ctx, utterance, state, history)
	if intent != IntentUnknown || state != StateNone {
		return intent
	}

	llmIntent, err := c.classifyRemote(ctx, utterance)
	if err != nil {
		slog.Warn("LLM intent classification failed, keeping rule result",
			"error", err,
			"input", truncateForLog(utterance, 50))
		return IntentUnknown
	}
	return llmIntent
}

func (c *LLMIntentClassifier) classifyRemote(ctx context.Context, utterance string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   30,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: intentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: utterance},
		},
	})
	if err != nil {
		return IntentUnknown, fmt.Errorf("LLM request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return IntentUnknown, fmt.Errorf("empty response from LLM")
	}

	intent, err := parseIntentReply(resp.Choices[0].Message.Content)
	if err != nil {
		return IntentUnknown, err
	}
	slog.Debug("LLM intent classification completed",
		"intent", intent,
		"latency_ms", time.Since(start).Milliseconds())
	return intent, nil
}

// parseIntentReply accepts {"intent":"book"} or a bare intent name,
// optionally inside a markdown code fence.
func parseIntentReply(content string) (Intent, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "`\n ")

	var raw struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err == nil {
		content = raw.Intent
	}
	return ParseIntent(strings.Trim(content, `"' .`))
}

func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

const intentSystemPrompt = `You classify messages sent to an appointment scheduling assistant.
Reply with JSON {"intent": X} where X is one of:
book: the user wants to create an appointment
check_availability: the user asks whether a time is free
unknown: anything else`

var _ Classifier = (*LLMIntentClassifier)(nil)
