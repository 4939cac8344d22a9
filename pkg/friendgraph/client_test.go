package friendgraph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/config"
)

func TestBestFriends_ParsesAndFilters(t *testing.T) {
	var gotFID, gotLimit, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFID = r.URL.Query().Get("fid")
		gotLimit = r.URL.Query().Get("limit")
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":[
			{"fid":1,"username":"alice","pfp_url":"https://pfp/a","wallet":"0xaaa"},
			{"fid":2,"username":"nowallet","pfp_url":"https://pfp/b","wallet":""},
			{"fid":3,"username":"bob","pfp_url":"https://pfp/c","wallet":"0xccc"}
		]}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_FRIEND_GRAPH_KEY", "sekrit")
	c := NewClient(&config.FriendGraphConfig{
		BaseURL:        srv.URL,
		APIKeyEnv:      "TEST_FRIEND_GRAPH_KEY",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())

	friends, err := c.BestFriends(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("BestFriends() failed: %v", err)
	}
	if gotFID != "42" || gotLimit != "10" || gotKey != "sekrit" {
		t.Fatalf("unexpected request params: fid=%s limit=%s key=%s", gotFID, gotLimit, gotKey)
	}
	if len(friends) != 2 {
		t.Fatalf("expected 2 friends with wallets, got %d", len(friends))
	}
	if friends[0].Name != "alice" || friends[1].Wallet != "0xccc" {
		t.Fatalf("unexpected friends: %+v", friends)
	}
}

func TestBestFriends_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(&config.FriendGraphConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())

	if _, err := c.BestFriends(context.Background(), 42, 10); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestBestFriends_UnconfiguredReturnsEmpty(t *testing.T) {
	c := NewClient(&config.FriendGraphConfig{RequestTimeout: time.Second}, zap.NewNop())

	friends, err := c.BestFriends(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("BestFriends() failed: %v", err)
	}
	if friends != nil {
		t.Fatalf("expected nil pool when unconfigured, got %+v", friends)
	}
}
