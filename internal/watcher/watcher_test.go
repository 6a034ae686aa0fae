package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExpandRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.log"))
	touch(t, filepath.Join(dir, "runs", "b.log"))
	touch(t, filepath.Join(dir, "runs", "deep", "c.log"))
	touch(t, filepath.Join(dir, "runs", "notes.txt"))

	got, err := Expand([]string{filepath.Join(dir, "**", "*.log")})
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(got)
	want := []string{
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "runs", "b.log"),
		filepath.Join(dir, "runs", "deep", "c.log"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandDeduplicates(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.log"))

	got, err := Expand([]string{
		filepath.Join(dir, "*.log"),
		filepath.Join(dir, "a.log"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected one match, got %v", got)
	}
}

func TestExpandNoMatches(t *testing.T) {
	got, err := Expand([]string{filepath.Join(t.TempDir(), "*.log")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestPathsSorted(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "a.log"),
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	defer w.fsw.Close()

	want := []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")}
	if diff := cmp.Diff(want, w.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestStartReportsWatchedFileOnly(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "log.txt")

	w, err := New([]string{target}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	touch(t, filepath.Join(dir, "other.txt"))
	touch(t, target)

	select {
	case ev := <-w.Events:
		if filepath.Clean(ev.Path) != target {
			t.Errorf("expected event for %s, got %s", target, ev.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestStartClosesEventsOnCancel(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "log.txt")}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	cancel()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel was not closed")
		}
	}
}
