package state

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestUpstashStore(t *testing.T, handler http.HandlerFunc) *UpstashRedisStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store
}

func TestNewUpstashRedisStoreRequiresURLAndToken(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashRedisStore(UpstashRedisConfig{Token: "token"}); err == nil {
		t.Fatalf("NewUpstashRedisStore() without url error = nil")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatalf("NewUpstashRedisStore() without token error = nil")
	}
}

func TestUpstashRedisStoreAppendUsesTransaction(t *testing.T) {
	t.Parallel()

	var (
		gotPath     string
		gotAuth     string
		gotCommands [][]any
	)
	store := newTestUpstashStore(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotCommands); err != nil {
			t.Errorf("decode commands: %v", err)
		}
		fmt.Fprint(w, `[{"result":1},{"result":1}]`)
	})

	if err := store.Append(context.Background(), "message_history:s1", []byte(`{"role":"user"}`), time.Hour); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if gotPath != "/multi-exec" {
		t.Fatalf("path = %q, want /multi-exec", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("Authorization = %q, want Bearer token", gotAuth)
	}
	if len(gotCommands) != 2 {
		t.Fatalf("commands = %#v, want 2", gotCommands)
	}
	if gotCommands[0][0] != "RPUSH" || gotCommands[0][1] != "message_history:s1" || gotCommands[0][2] != `{"role":"user"}` {
		t.Fatalf("command[0] = %#v", gotCommands[0])
	}
	if gotCommands[1][0] != "EXPIRE" || gotCommands[1][2] != float64(3600) {
		t.Fatalf("command[1] = %#v, want EXPIRE ... 3600", gotCommands[1])
	}
}

func TestUpstashRedisStoreAppendSurfacesCommandError(t *testing.T) {
	t.Parallel()

	store := newTestUpstashStore(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"error":"WRONGTYPE"},{"result":0}]`)
	})

	if err := store.Append(context.Background(), "k", []byte("v"), time.Minute); err == nil {
		t.Fatalf("Append() error = nil, want WRONGTYPE")
	}
}

func TestUpstashRedisStoreRange(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	store := newTestUpstashStore(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":["a","b"]}`)
	})

	got, err := store.Range(context.Background(), "tool_memory:s1")
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "b" {
		t.Fatalf("Range() = %q, want [a b]", got)
	}
	if gotCommand[0] != "LRANGE" || gotCommand[1] != "tool_memory:s1" {
		t.Fatalf("command = %#v, want LRANGE tool_memory:s1 0 -1", gotCommand)
	}
}

func TestUpstashRedisStoreRangeMissingKey(t *testing.T) {
	t.Parallel()

	store := newTestUpstashStore(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[]}`)
	})

	got, err := store.Range(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Range() = %q, want empty", got)
	}
}

func TestUpstashRedisStoreLenAndDelete(t *testing.T) {
	t.Parallel()

	var commands []string
	store := newTestUpstashStore(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
		}
		name, _ := cmd[0].(string)
		commands = append(commands, name)
		switch name {
		case "LLEN":
			fmt.Fprint(w, `{"result":3}`)
		default:
			fmt.Fprint(w, `{"result":1}`)
		}
	})

	n, err := store.Len(context.Background(), "k")
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Len() = %d, want 3", n)
	}
	if err := store.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(commands) != 2 || commands[0] != "LLEN" || commands[1] != "DEL" {
		t.Fatalf("commands = %v, want [LLEN DEL]", commands)
	}
}

func TestUpstashRedisStoreHTTPError(t *testing.T) {
	t.Parallel()

	store := newTestUpstashStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	if _, err := store.Range(context.Background(), "k"); err == nil {
		t.Fatalf("Range() error = nil, want http status error")
	}
}

func TestTTLSecondsRoundsUp(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]int64{
		time.Hour:               3600,
		1500 * time.Millisecond: 2,
		10 * time.Millisecond:   1,
	}
	for ttl, want := range cases {
		if got := ttlSeconds(ttl); got != want {
			t.Fatalf("ttlSeconds(%v) = %d, want %d", ttl, got, want)
		}
	}
}
