package server

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/hrygo/slotdesk/internal/profile"
	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/ai/aitime"
	"github.com/hrygo/slotdesk/plugin/ai/cache"
	"github.com/hrygo/slotdesk/plugin/ai/schedule"
	"github.com/hrygo/slotdesk/plugin/ai/session"
	"github.com/hrygo/slotdesk/plugin/calendar"
	"github.com/hrygo/slotdesk/store"
)

// NewCalendar builds the calendar collaborator named by the profile.
func NewCalendar(ctx context.Context, prof *profile.Profile, st *store.Store) (calendar.Calendar, error) {
	switch prof.CalendarBackend {
	case "memory":
		return calendar.NewMemoryCalendar(), nil
	case "store":
		return calendar.NewStoreCalendar(st), nil
	case "google":
		cal, err := calendar.NewGoogleCalendar(ctx, calendar.GoogleConfig{
			CredentialsBase64: prof.GoogleCredentialsBase64,
			CalendarID:        prof.GoogleCalendarID,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create google calendar")
		}
		return cal, nil
	default:
		return nil, errors.Errorf("unsupported calendar backend: %s", prof.CalendarBackend)
	}
}

// NewOrchestrator wires the dialogue core from the profile.
func NewOrchestrator(prof *profile.Profile, cal calendar.Calendar) *agent.Orchestrator {
	times := aitime.NewService(prof.Timezone,
		aitime.WithDefaultDuration(time.Duration(prof.DefaultDurationMinutes)*time.Minute))

	opts := []agent.Option{
		agent.WithTimezone(prof.Timezone),
		agent.WithBusinessHours(schedule.BusinessHours{
			OpenHour:  prof.BusinessOpenHour,
			CloseHour: prof.BusinessCloseHour,
		}),
	}
	if prof.IntentLLMEnabled {
		opts = append(opts, agent.WithClassifier(agent.NewLLMIntentClassifier(agent.LLMIntentConfig{
			APIKey:  prof.IntentLLMAPIKey,
			BaseURL: prof.IntentLLMBaseURL,
			Model:   prof.IntentLLMModel,
		})))
	}
	return agent.NewOrchestrator(cal, times, opts...)
}

// NewSessionService builds the session backend named by the profile.
// The returned closer releases backend connections and is never nil.
func NewSessionService(ctx context.Context, prof *profile.Profile, st *store.Store) (session.SessionService, func() error, error) {
	noop := func() error { return nil }
	switch prof.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), noop, nil
	case "store":
		c := cache.NewService(cache.ServiceConfig{Capacity: 1000, DefaultTTL: prof.SessionTTL})
		return session.NewSessionStore(st, c), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     prof.RedisAddr,
			Password: prof.RedisPassword,
			DB:       prof.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, errors.Wrapf(err, "failed to connect to redis at %s", prof.RedisAddr)
		}
		return session.NewRedisStore(client, prof.SessionTTL), client.Close, nil
	default:
		return nil, noop, errors.Errorf("unsupported session backend: %s", prof.SessionBackend)
	}
}
