package todoist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestTaskContent(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want string
	}{
		{"string", Task{"content": "Buy milk"}, "Buy milk"},
		{"missing", Task{"id": "1"}, ""},
		{"wrong type", Task{"content": 3}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		if got := tt.task.Content(); got != tt.want {
			t.Errorf("%s: Content() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	var gotAuth, gotFilter, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFilter = r.URL.Query().Get("filter")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id": "1", "content": "A", "priority": 4},
			{"id": "2", "content": "B", "priority": 1},
			{"id": "3", "content": "C", "priority": 1}
		]`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL + "/rest/v2/", Token: "secret", Logger: quiet}
	tasks, err := c.Fetch(context.Background(), "today", 2)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotFilter != "today" {
		t.Errorf("filter = %q, want %q", gotFilter, "today")
	}
	if gotPath != "/rest/v2/tasks" {
		t.Errorf("path = %q, want /rest/v2/tasks", gotPath)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].Content() != "A" || tasks[1].Content() != "B" {
		t.Errorf("tasks = %v, want A then B", tasks)
	}
	if p, ok := tasks[0]["priority"].(interface{ String() string }); !ok || p.String() != "4" {
		t.Errorf("priority = %#v, want json.Number 4", tasks[0]["priority"])
	}
}

func TestFetchNoLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"content":"A"},{"content":"B"},{"content":"C"}]`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "t", Logger: quiet}
	tasks, err := c.Fetch(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Errorf("len(tasks) = %d, want 3", len(tasks))
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
		}, "unexpected status 401"},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, "unexpected status 502"},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `<html>oops</html>`)
		}, "decoding tasks"},
		{"not an array", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"content":"A"}`)
		}, "decoding tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := &Client{BaseURL: srv.URL, Token: "t", Logger: quiet}
			tasks, err := c.Fetch(context.Background(), "today", 10)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Fetch() error = %v, want containing %q", err, tt.want)
			}
			if tasks != nil {
				t.Errorf("tasks = %v, want nil", tasks)
			}
		})
	}
}

func TestFetchNoToken(t *testing.T) {
	c := &Client{BaseURL: "http://127.0.0.1:0", Logger: quiet}
	if _, err := c.Fetch(context.Background(), "today", 10); !errors.Is(err, ErrNoToken) {
		t.Errorf("Fetch() error = %v, want ErrNoToken", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(done)

	c := &Client{
		BaseURL: srv.URL,
		Token:   "t",
		HTTP:    &http.Client{Timeout: 50 * time.Millisecond},
		Logger:  quiet,
	}
	if _, err := c.Fetch(context.Background(), "today", 10); err == nil {
		t.Fatal("Fetch() succeeded, want timeout error")
	}
}

func TestDecodeNull(t *testing.T) {
	tasks, err := Decode([]byte("null"))
	if err != nil {
		t.Fatal(err)
	}
	if tasks != nil {
		t.Errorf("Decode(null) = %v, want nil", tasks)
	}
}
