package syncdoc

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/studio/internal/storage"
)

type failingStore struct{ storage.DocumentStore }

func (failingStore) Save(context.Context, []byte) error { return errors.New("disk full") }

func newTestService(t *testing.T) (*Service, *storage.FileStore) {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "sync.json"))
	return NewService(store, nil), store
}

func TestRead_empty(t *testing.T) {
	svc, _ := newTestService(t)
	got, err := svc.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"updatedAt":null}` {
		t.Errorf("Read = %s", got)
	}
	stamp, err := svc.UpdatedAt(context.Background())
	if err != nil || stamp != nil {
		t.Errorf("UpdatedAt = %v, %v", stamp, err)
	}
}

func TestWrite_lastWriterWins(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	stampA, err := svc.Write(ctx, []byte(`{"phases":["a"],"updatedAt":"1999-01-01T00:00:00.000Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	stampB, err := svc.Write(ctx, []byte(`{"phases":["b"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if stampA != "2026-03-01T10:00:00.000Z" {
		t.Errorf("stampA = %s", stampA)
	}
	if stampB <= stampA {
		t.Errorf("second stamp %s must be later than %s", stampB, stampA)
	}

	raw, err := svc.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Phases    []string `json:"phases"`
		UpdatedAt string   `json:"updatedAt"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Phases) != 1 || doc.Phases[0] != "b" || doc.UpdatedAt != stampB {
		t.Errorf("stored = %+v", doc)
	}
	if !strings.Contains(string(raw), "\n  \"phases\"") {
		t.Errorf("document should be pretty-printed:\n%s", raw)
	}
	got, err := svc.UpdatedAt(ctx)
	if err != nil || got == nil || *got != stampB {
		t.Errorf("UpdatedAt = %v, %v", got, err)
	}
}

func TestWrite_clientStampIgnored(t *testing.T) {
	svc, _ := newTestService(t)
	stamp, err := svc.Write(context.Background(), []byte(`{"updatedAt":"3000-01-01T00:00:00.000Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(stamp, "3000") {
		t.Errorf("client updatedAt must be replaced, got %s", stamp)
	}
	if _, err := time.Parse(TimestampLayout, stamp); err != nil {
		t.Errorf("stamp %q is not in layout: %v", stamp, err)
	}
}

func TestWrite_rejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `null`, `[]`, `[{"a":1}]`, `"text"`, `42`, `{"a":`, `{} trailing`} {
		t.Run(body, func(t *testing.T) {
			svc, store := newTestService(t)
			if _, err := svc.Write(context.Background(), []byte(body)); !errors.Is(err, ErrNotObject) {
				t.Fatalf("expected ErrNotObject, got %v", err)
			}
			if _, err := store.Load(context.Background()); !errors.Is(err, storage.ErrNotFound) {
				t.Error("nothing may be written for a rejected body")
			}
		})
	}
}

func TestWrite_storeFailureKeepsPrevious(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Write(ctx, []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	broken := NewService(failingStore{store}, nil)
	if _, err := broken.Write(ctx, []byte(`{"v":2}`)); err == nil {
		t.Fatal("expected store error")
	}
	raw, _ := svc.Read(ctx)
	if !strings.Contains(string(raw), `"v": 1`) {
		t.Errorf("previous document lost: %s", raw)
	}
}

func TestStamp_strictlyIncreasing(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 999_999, time.UTC)
	svc.now = func() time.Time { return fixed }
	prev := ""
	for i := 0; i < 5; i++ {
		s := svc.stamp()
		if s <= prev {
			t.Fatalf("stamp %d = %s, not after %s", i, s, prev)
		}
		prev = s
	}
	if prev != "2026-01-01T00:00:00.004Z" {
		t.Errorf("last stamp = %s", prev)
	}
}
