package redis_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aromera/passport/internal/cache"
	"github.com/aromera/passport/internal/domain/repository"
	redisstore "github.com/aromera/passport/internal/store/redis"
)

// Los tests corren contra el backend memory del cache: el contrato de
// Client es el mismo que con redis.

func TestPutStoresSessionPayload(t *testing.T) {
	c := cache.NewMemory("test")
	st := redisstore.NewSessionStore(c, 0)

	sess, err := st.Put(context.Background(), "user-1", map[string]any{"provider": "google"})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, "user-1", sess.UserID)
	require.False(t, sess.CreatedAt.IsZero())

	raw, err := c.Get(context.Background(), fmt.Sprintf("session:%s:%s", sess.UserID, sess.ID))
	require.NoError(t, err)

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Equal(t, sess.ID, stored["id"])
	require.Equal(t, "user-1", stored["user_id"])
	data, ok := stored["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "google", data["provider"])
}

func TestPutRejectsEmptyUser(t *testing.T) {
	st := redisstore.NewSessionStore(cache.NewMemory(""), 0)
	_, err := st.Put(context.Background(), "", nil)
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestPutDistinctIDs(t *testing.T) {
	st := redisstore.NewSessionStore(cache.NewMemory(""), time.Hour)

	a, err := st.Put(context.Background(), "user-1", nil)
	require.NoError(t, err)
	b, err := st.Put(context.Background(), "user-1", nil)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}
