package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"rxops/internal/blob"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	info, err := s.Put(ctx, "sop-attachments/k1", strings.NewReader("hello"), blob.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if info.Size != 5 || info.ContentType != "text/plain" {
		t.Errorf("info = %+v", info)
	}

	got, rc, err := s.Get(ctx, "sop-attachments/k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}
	if got.Key != "sop-attachments/k1" {
		t.Errorf("key = %q", got.Key)
	}
}

func TestStoreMissingKey(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, _, err := s.Get(ctx, "nope"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Get: got %v, want ErrNotFound", err)
	}
	if _, err := s.ResolveURL(ctx, "nope", time.Minute); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("ResolveURL: got %v, want ErrNotFound", err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put(ctx, "k1", strings.NewReader("x"), blob.PutOptions{})
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after delete", s.Len())
	}

	// Deleting an absent key is not an error
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestStoreResolveURL(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put(ctx, "docs/manual.pdf", strings.NewReader("pdf"), blob.PutOptions{})
	url, err := s.ResolveURL(ctx, "docs/manual.pdf", time.Minute)
	if err != nil {
		t.Fatalf("ResolveURL failed: %v", err)
	}
	if url != "memory://docs/manual.pdf" {
		t.Errorf("url = %q", url)
	}
}
