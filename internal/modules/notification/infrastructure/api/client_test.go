package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/shared/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/", Timeout: time.Second, PageSize: 25}, auth.NewTokenStore(token), nil)
	require.NoError(t, err)
	return c
}

func TestClient_FetchNotifications(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/notifications", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"id": "n-2", "type": "info", "category": "job", "title": "New match", "message": "m", "is_read": false, "created_at": "2026-01-02T10:00:00Z"},
			{"id": "n-1", "type": "success", "category": "cv", "title": "CV ready", "message": "m", "is_read": true, "created_at": "2026-01-01T10:00:00Z", "job_id": "j-9"},
		}})
	})

	items, err := c.FetchNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "n-2", items[0].ID)
	assert.Equal(t, domain.NotificationTypeInfo, items[0].Type)
	assert.True(t, items[1].IsRead)
	require.NotNil(t, items[1].JobID)
	assert.Equal(t, "j-9", *items[1].JobID)
}

func TestClient_FetchNotificationsEmpty(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	})

	items, err := c.FetchNotifications(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_FetchUnreadCount(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/unread-count", r.URL.Path)
		w.Write([]byte(`{"count":7}`))
	})

	n, err := c.FetchUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestClient_Mutations(t *testing.T) {
	var seen []string
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, c.MarkAsRead(ctx, "n-1"))
	require.NoError(t, c.MarkAllAsRead(ctx))
	require.NoError(t, c.Delete(ctx, "a/b"))

	assert.Equal(t, []string{
		"PATCH /notifications/read/n-1",
		"PATCH /notifications/read-all",
		"DELETE /notifications/a%2Fb",
	}, seen)
}

func TestClient_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		err := c.MarkAllAsRead(context.Background())
		var serr *StatusError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, http.StatusInternalServerError, serr.Code)
		assert.Equal(t, "boom", serr.Body)
	})

	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		})
		err := c.Delete(context.Background(), "n-1")
		assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
	})

	t.Run("unauthorized", func(t *testing.T) {
		c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := c.FetchUnreadCount(context.Background())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("no token", func(t *testing.T) {
		called := false
		c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		_, err := c.FetchNotifications(context.Background())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.False(t, called)
	})

	t.Run("bad body", func(t *testing.T) {
		c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"count":`))
		})
		_, err := c.FetchUnreadCount(context.Background())
		assert.Error(t, err)
	})
}
