package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/ai/cache"
	"github.com/hrygo/slotdesk/store"
	storetest "github.com/hrygo/slotdesk/store/test"
)

func servicesUnderTest(t *testing.T) map[string]SessionService {
	t.Helper()
	st := storetest.NewTestingStore(context.Background(), t)
	services := map[string]SessionService{
		"memory":      NewMemoryStore(),
		"store":       NewSessionStore(st, nil),
		"store+cache": NewSessionStore(st, cache.NewService(cache.DefaultServiceConfig())),
	}
	if addr := os.Getenv("REDIS_TEST_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { client.Close() })
		services["redis"] = NewRedisStore(client, time.Minute)
	}
	return services
}

func sampleState() *agent.SessionState {
	return &agent.SessionState{
		Intent:     agent.IntentBook,
		WaitingFor: agent.StateAwaitingBookingTime,
		Context:    agent.ConversationContext{PendingDate: "Monday", LastPrompt: "What time on Monday? (e.g., '3 PM')"},
		History:    []string{"book a meeting", "Monday"},
	}
}

func TestSessionServiceContract(t *testing.T) {
	ctx := context.Background()
	for name, svc := range servicesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			id := "contract-" + strings.ReplaceAll(name, "+", "-")

			missing, err := svc.LoadState(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, missing)

			require.NoError(t, svc.SaveState(ctx, id, sampleState()))
			loaded, err := svc.LoadState(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, agent.IntentBook, loaded.Intent)
			assert.Equal(t, agent.StateAwaitingBookingTime, loaded.WaitingFor)
			assert.Equal(t, "Monday", loaded.Context.PendingDate)
			assert.Equal(t, []string{"book a meeting", "Monday"}, loaded.History)

			next := loaded.Clone()
			next.WaitingFor = agent.StateNone
			next.Completed = true
			require.NoError(t, svc.SaveState(ctx, id, next))
			loaded, err = svc.LoadState(ctx, id)
			require.NoError(t, err)
			assert.True(t, loaded.Completed)
			assert.Equal(t, agent.StateNone, loaded.WaitingFor)

			require.NoError(t, svc.DeleteSession(ctx, id))
			require.NoError(t, svc.DeleteSession(ctx, id))
			missing, err = svc.LoadState(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestSessionServiceRejectsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	for name, svc := range servicesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", strings.Repeat("x", MaxSessionIDLength+1)} {
				assert.ErrorIs(t, svc.SaveState(ctx, id, sampleState()), ErrInvalidSessionID)
				_, err := svc.LoadState(ctx, id)
				assert.ErrorIs(t, err, ErrInvalidSessionID)
				assert.ErrorIs(t, svc.DeleteSession(ctx, id), ErrInvalidSessionID)
			}
		})
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryStore()
	state := sampleState()
	require.NoError(t, svc.SaveState(ctx, "iso", state))

	state.History = append(state.History, "mutated after save")
	loaded, err := svc.LoadState(ctx, "iso")
	require.NoError(t, err)
	assert.Len(t, loaded.History, 2)
}

func TestSessionStoreCorruptRowRestarts(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	_, err := st.UpsertConversationSession(ctx, &store.ConversationSession{ID: "broken", State: `{"waiting_for":"bogus"}`})
	require.NoError(t, err)

	svc := NewSessionStore(st, nil)
	loaded, err := svc.LoadState(ctx, "broken")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, agent.StateNone, loaded.WaitingFor)
}

func TestSessionStoreServesFromCache(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	c := cache.NewService(cache.DefaultServiceConfig())
	svc := NewSessionStore(st, c)

	require.NoError(t, svc.SaveState(ctx, "cached", sampleState()))
	_, ok := c.Get(ctx, cachePrefix+"cached")
	assert.True(t, ok)

	require.NoError(t, svc.DeleteSession(ctx, "cached"))
	_, ok = c.Get(ctx, cachePrefix+"cached")
	assert.False(t, ok)
}

func TestSessionRecovery(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryStore()
	recovery := NewSessionRecovery(svc)

	fresh, err := recovery.RecoverSession(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, agent.StateNone, fresh.WaitingFor)
	assert.Empty(t, fresh.History)

	for i := 0; i < MaxHistoryPerSession+5; i++ {
		fresh.History = append(fresh.History, "utterance")
	}
	fresh.History[len(fresh.History)-1] = "latest"
	require.NoError(t, recovery.PersistSession(ctx, "r1", fresh))

	loaded, err := recovery.RecoverSession(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, loaded.History, MaxHistoryPerSession)
	assert.Equal(t, "latest", loaded.History[MaxHistoryPerSession-1])
}

func TestSessionCleanupJob(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		job := NewSessionCleanupJob(NewMemoryStore(), CleanupConfig{})
		assert.Equal(t, DefaultRetentionDays, job.config.RetentionDays)
		assert.Equal(t, DefaultCleanupInterval, job.config.CleanupInterval)
	})

	t.Run("RunOnce removes idle sessions", func(t *testing.T) {
		svc := NewMemoryStore().(*memoryStore)
		now := time.Date(2026, 10, 21, 11, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now.AddDate(0, 0, -40) }
		require.NoError(t, svc.SaveState(ctx, "old", sampleState()))
		svc.now = func() time.Time { return now }
		require.NoError(t, svc.SaveState(ctx, "new", sampleState()))

		job := NewSessionCleanupJob(svc, CleanupConfig{RetentionDays: 30})
		deleted, err := job.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		old, err := svc.LoadState(ctx, "old")
		require.NoError(t, err)
		assert.Nil(t, old)
	})

	t.Run("start and stop", func(t *testing.T) {
		job := NewSessionCleanupJob(NewMemoryStore(), CleanupConfig{CleanupInterval: 10 * time.Millisecond})
		job.Start(ctx)
		job.Start(ctx)
		assert.True(t, job.IsRunning())
		job.Stop()
		job.Stop()
		assert.False(t, job.IsRunning())
	})
}
