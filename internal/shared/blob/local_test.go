package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/config"
)

func TestLocalPutGetDelete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "certificates/abc.pdf", strings.NewReader("%PDF-1.3"), 8, "application/pdf")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Key != "certificates/abc.pdf" || info.Size != 8 {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "certificates/abc.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "%PDF-1.3" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.ContentType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got.ContentType)
	}

	if err := store.Delete(ctx, "certificates/abc.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "certificates/abc.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "certificates/abc.pdf"); err != nil {
		t.Fatalf("deleting a missing key should be a no-op, got %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	for _, key := range []string{"../escape.txt", "/etc/passwd", "a/../../b", ""} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, ""); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{Driver: "local", LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Driver() != DriverLocal {
		t.Fatalf("expected local driver, got %s", store.Driver())
	}
	if _, err := Open(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
