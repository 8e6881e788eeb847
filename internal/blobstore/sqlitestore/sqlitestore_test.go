package sqlitestore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bigkaa/appgallery/internal/blobstore"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "gallery.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(context.Background(), path, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_PutGet(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "apps.json"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}

	if err := s.Put(ctx, "apps.json", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "apps.json", []byte(`[{"id":1},{"id":2}]`)); err != nil {
		t.Fatalf("повторный Put: %v", err)
	}

	got, err := s.Get(ctx, "apps.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":1},{"id":2}]` {
		t.Errorf("Get = %s, ожидается перезаписанное значение", got)
	}

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestStore_Reopen(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "contents.json", []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = s.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	reopened, err := Open(ctx, path, logger)
	if err != nil {
		t.Fatalf("повторный Open: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "contents.json")
	if err != nil {
		t.Fatalf("Get после переоткрытия: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get = %s, ожидается []", got)
	}
}

func TestStore_ConcurrentPut(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Put(ctx, "apps.json", []byte(`[]`))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("параллельный Put: %v", err)
		}
	}
}

func TestStore_InvalidKey(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Put(context.Background(), "a/b.json", []byte(`[]`)); !errors.Is(err, blobstore.ErrInvalidKey) {
		t.Errorf("ожидалась ErrInvalidKey, получено %v", err)
	}
}
