package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRuleIntentClassifier_Classify(t *testing.T) {
	c := NewRuleIntentClassifier()

	tests := []struct {
		name      string
		utterance string
		state     DialogueState
		history   []string
		want      Intent
	}{
		{"book vocabulary", "please book Friday 2 PM", StateNone, nil, IntentBook},
		{"reserve", "reserve a slot tomorrow", StateNone, nil, IntentBook},
		{"availability vocabulary", "am I free tomorrow afternoon", StateNone, nil, IntentCheckAvailability},
		{"book wins ties", "is the meeting room available", StateNone, nil, IntentBook},
		{"bare weekday", "Friday 2 PM", StateNone, nil, IntentCheckAvailability},
		{"today", "anything today?", StateNone, nil, IntentCheckAvailability},
		{"whole words only", "bookkeeping opener", StateNone, nil, IntentUnknown},
		{"nothing", "hello there", StateNone, nil, IntentUnknown},
		{"history contributes", "2 PM", StateNone, []string{"I need to schedule something"}, IntentBook},
		{"history window", "2 PM", StateNone, []string{"book it", "a", "b", "c"}, IntentUnknown},
		{"time range override", "book it", StateAwaitingTimeRange, nil, IntentCheckAvailability},
		{"booking time override", "am I free", StateAwaitingBookingTime, nil, IntentBook},
		{"confirmation override", "hello", StateAwaitingConfirmation, nil, IntentBook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.utterance, tt.state, tt.history))
		})
	}
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

func TestLLMIntentClassifier(t *testing.T) {
	t.Run("rules win without a remote call", func(t *testing.T) {
		client := &mockCompleter{}
		c := newLLMIntentClassifier(client, LLMIntentConfig{})
		assert.Equal(t, IntentBook, c.Classify(context.Background(), "book Friday", StateNone, nil))
		client.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
	})

	t.Run("state override wins", func(t *testing.T) {
		client := &mockCompleter{}
		c := newLLMIntentClassifier(client, LLMIntentConfig{})
		assert.Equal(t, IntentBook, c.Classify(context.Background(), "hmm", StateAwaitingConfirmation, nil))
		client.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
	})

	t.Run("remote resolves unknown", func(t *testing.T) {
		client := &mockCompleter{}
		client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
			return req.Model == "test-model" && len(req.Messages) == 2
		})).Return(reply(`{"intent": "check_availability"}`), nil).Once()
		c := newLLMIntentClassifier(client, LLMIntentConfig{Model: "test-model"})
		assert.Equal(t, IntentCheckAvailability, c.Classify(context.Background(), "can I squeeze in a chat later", StateNone, nil))
		client.AssertExpectations(t)
	})

	t.Run("remote error degrades to unknown", func(t *testing.T) {
		client := &mockCompleter{}
		client.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(openai.ChatCompletionResponse{}, errors.New("401")).Once()
		c := newLLMIntentClassifier(client, LLMIntentConfig{})
		assert.Equal(t, IntentUnknown, c.Classify(context.Background(), "hello", StateNone, nil))
	})

	t.Run("garbage reply degrades to unknown", func(t *testing.T) {
		client := &mockCompleter{}
		client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply("I think they want pizza"), nil).Once()
		c := newLLMIntentClassifier(client, LLMIntentConfig{})
		assert.Equal(t, IntentUnknown, c.Classify(context.Background(), "hello", StateNone, nil))
	})
}

func TestParseIntentReply(t *testing.T) {
	tests := []struct {
		content string
		want    Intent
		wantErr bool
	}{
		{`{"intent":"book"}`, IntentBook, false},
		{"```json\n{\"intent\": \"unknown\"}\n```", IntentUnknown, false},
		{"check_availability", IntentCheckAvailability, false},
		{`"book".`, IntentBook, false},
		{"pizza", IntentUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, err := parseIntentReply(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
