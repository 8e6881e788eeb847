package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/appgallery/internal/blobstore"
)

// memStore — in-memory blobstore.Store со счётчиками вызовов.
type memStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	gets   int
	puts   int
	putErr error
	getErr error
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.blobs[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return data, nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.blobs[key] = data
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"apps", KindApps, false},
		{"contents", KindContents, false},
		{"users", "", true},
		{"", "", true},
		{"Apps", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownKind) {
			t.Errorf("ParseKind(%q): ожидалась ErrUnknownKind, получено %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, ожидается %q", tt.input, got, tt.want)
		}
	}
}

func TestBlobKey(t *testing.T) {
	if KindApps.BlobKey() != "apps.json" || KindContents.BlobKey() != "contents.json" {
		t.Errorf("неожиданные ключи: %s, %s", KindApps.BlobKey(), KindContents.BlobKey())
	}
}

func TestRepository_SaveThenLoad(t *testing.T) {
	store := newMemStore()
	repo := NewRepository(store, 4, time.Minute, testLogger())
	ctx := context.Background()

	items := []json.RawMessage{json.RawMessage(`{"id":1,"name":"A"}`)}
	if !repo.SaveCollection(ctx, KindApps, items) {
		t.Fatal("SaveCollection вернул false")
	}
	if string(store.blobs["apps.json"]) != `[{"id":1,"name":"A"}]` {
		t.Errorf("блоб = %s", store.blobs["apps.json"])
	}

	got, err := repo.LoadCollection(ctx, KindApps)
	if err != nil {
		t.Fatalf("LoadCollection: %v", err)
	}
	if len(got) != 1 || string(got[0]) != `{"id":1,"name":"A"}` {
		t.Errorf("LoadCollection = %s", got)
	}
}

func TestRepository_LoadMissingIsEmpty(t *testing.T) {
	repo := NewRepository(newMemStore(), 4, time.Minute, testLogger())

	got, err := repo.LoadCollection(context.Background(), KindContents)
	if err != nil {
		t.Fatalf("LoadCollection: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ожидается пустая коллекция, получено %v", got)
	}
}

func TestRepository_CacheHitAndInvalidation(t *testing.T) {
	store := newMemStore()
	store.blobs["apps.json"] = []byte(`[{"id":1}]`)
	repo := NewRepository(store, 4, time.Minute, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.LoadCollection(ctx, KindApps); err != nil {
			t.Fatalf("LoadCollection: %v", err)
		}
	}
	if store.gets != 1 {
		t.Errorf("Get вызван %d раз, ожидается 1 (кэш)", store.gets)
	}

	repo.SaveCollection(ctx, KindApps, []json.RawMessage{json.RawMessage(`{"id":2}`), json.RawMessage(`{"id":3}`)})

	got, err := repo.LoadCollection(ctx, KindApps)
	if err != nil {
		t.Fatalf("LoadCollection: %v", err)
	}
	if store.gets != 2 {
		t.Errorf("после сохранения кэш должен быть инвалидирован, Get = %d", store.gets)
	}
	if len(got) != 2 {
		t.Errorf("ожидается 2 записи, получено %d", len(got))
	}
}

func TestRepository_CacheTTL(t *testing.T) {
	store := newMemStore()
	repo := NewRepository(store, 4, 20*time.Millisecond, testLogger())
	ctx := context.Background()

	_, _ = repo.LoadCollection(ctx, KindApps)
	time.Sleep(60 * time.Millisecond)
	_, _ = repo.LoadCollection(ctx, KindApps)

	if store.gets != 2 {
		t.Errorf("после TTL ожидается повторное чтение, Get = %d", store.gets)
	}
}

func TestRepository_SaveFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("blob API недоступен")
	repo := NewRepository(store, 4, time.Minute, testLogger())

	if repo.SaveCollection(context.Background(), KindContents, []json.RawMessage{json.RawMessage(`{}`)}) {
		t.Error("ожидался false при ошибке хранилища")
	}
}

func TestRepository_UnknownKind(t *testing.T) {
	store := newMemStore()
	repo := NewRepository(store, 4, time.Minute, testLogger())
	ctx := context.Background()

	if repo.SaveCollection(ctx, Kind("users"), nil) {
		t.Error("SaveCollection для неизвестной коллекции должен вернуть false")
	}
	if store.puts != 0 {
		t.Error("неизвестная коллекция не должна записываться")
	}
	if _, err := repo.LoadCollection(ctx, Kind("users")); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ожидалась ErrUnknownKind, получено %v", err)
	}
}

func TestRepository_LoadErrors(t *testing.T) {
	t.Run("ошибка хранилища", func(t *testing.T) {
		store := newMemStore()
		store.getErr = errors.New("timeout")
		repo := NewRepository(store, 4, time.Minute, testLogger())
		if _, err := repo.LoadCollection(context.Background(), KindApps); err == nil {
			t.Error("ожидалась ошибка")
		}
	})

	t.Run("повреждённый JSON", func(t *testing.T) {
		store := newMemStore()
		store.blobs["apps.json"] = []byte(`{not json`)
		repo := NewRepository(store, 4, time.Minute, testLogger())
		if _, err := repo.LoadCollection(context.Background(), KindApps); err == nil {
			t.Error("ожидалась ошибка разбора")
		}
	})
}
