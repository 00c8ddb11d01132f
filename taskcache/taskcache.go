// Package taskcache remembers the last rendered task list so unchanged
// lists can skip rendering and panel writes.
package taskcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/walltodo/walltodo/internal/fsutil"
	"github.com/walltodo/walltodo/todoist"
)

// Snapshot is the task list of the last successful render.
type Snapshot struct {
	Tasks []todoist.Task
}

// Changed reports whether current differs from cached.
//
// A nil cached snapshot always counts as changed, even for an empty list.
// Otherwise the lists are compared element by element, in order; two tasks
// are equal when they encode to the same JSON.
func Changed(current []todoist.Task, cached *Snapshot) bool {
	if cached == nil {
		return true
	}
	if len(current) != len(cached.Tasks) {
		return true
	}
	for i := range current {
		if !equal(current[i], cached.Tasks[i]) {
			return true
		}
	}
	return false
}

func equal(a, b todoist.Task) bool {
	// encoding/json sorts map keys, so equal maps encode identically.
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// Store keeps a Snapshot as a JSON array in a single file.
type Store struct {
	Path   string
	Logger *slog.Logger // nil means slog.Default()
}

// Load returns the stored snapshot, or nil when there is none.
// An unreadable or malformed file is treated as no snapshot.
func (s *Store) Load() *Snapshot {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.logger().LogAttrs(context.Background(), slog.LevelWarn, "Store.Load",
			slog.String("path", s.Path), slog.String("err", err.Error()))
		return nil
	}

	tasks, err := todoist.Decode(data)
	if err != nil || tasks == nil {
		msg := "not a task list"
		if err != nil {
			msg = err.Error()
		}
		s.logger().LogAttrs(context.Background(), slog.LevelWarn, "Store.Load",
			slog.String("path", s.Path), slog.String("err", msg))
		return nil
	}
	return &Snapshot{Tasks: tasks}
}

// Persist atomically replaces the stored snapshot with tasks.
func (s *Store) Persist(tasks []todoist.Task) error {
	if tasks == nil {
		tasks = []todoist.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
