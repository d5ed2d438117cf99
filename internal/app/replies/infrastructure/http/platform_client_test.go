package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"replyflow/internal/app/replies/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReview_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/accounts/1/locations/2/reviews/ext-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(entity.PlatformReview{
			ReviewID:   "ext-1",
			StarRating: "FIVE",
			Comment:    "Great!",
			Reviewer:   entity.PlatformReviewer{DisplayName: "Anna"},
		})
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	review, err := client.GetReview(context.Background(), "tok", "accounts/1/locations/2/reviews/ext-1")

	require.NoError(t, err)
	assert.Equal(t, "ext-1", review.ReviewID)
	assert.Equal(t, "FIVE", review.StarRating)
	assert.Equal(t, "Anna", review.Reviewer.DisplayName)
}

func TestGetReview_PermissionDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	_, err := client.GetReview(context.Background(), "tok", "reviews/ext-1")

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetReview_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	_, err := client.GetReview(context.Background(), "tok", "reviews/ghost")

	assert.ErrorIs(t, err, ErrPlatformNotFound)
}

func TestPostReply_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/reviews/ext-1/reply", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Thank you!", payload["comment"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	err := client.PostReply(context.Background(), "tok", "reviews/ext-1", "Thank you!")

	assert.NoError(t, err)
}

func TestPostReply_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	err := client.PostReply(context.Background(), "tok", "reviews/ext-1", "Thanks!")

	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestPostReply_NoInternalRetry(t *testing.T) {
	// Клиент не повторяет запросы сам: ровно один вызов на ошибку
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	err := client.PostReply(context.Background(), "tok", "reviews/ext-1", "Thanks!")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSubscribeToNotifications_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/locations/loc-1/notifications", r.URL.Path)

		var payload map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload["notificationTypes"], "NEW_REVIEW")

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	err := client.SubscribeToNotifications(context.Background(), "tok", "loc-1")

	assert.NoError(t, err)
}

func TestListLocations_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)

		json.NewEncoder(w).Encode(map[string][]entity.PlatformLocation{
			"locations": {
				{LocationID: "loc-1", Title: "Cafe Aurora"},
				{LocationID: "loc-2", Title: "Cafe Borealis"},
			},
		})
	}))
	defer server.Close()

	client := NewPlatformAPIClient(server.URL, 5*time.Second)

	locations, err := client.ListLocations(context.Background(), "tok")

	require.NoError(t, err)
	assert.Len(t, locations, 2)
	assert.Equal(t, "Cafe Aurora", locations[0].Title)
}
