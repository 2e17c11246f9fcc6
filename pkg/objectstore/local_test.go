package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	exists, err := store.BucketExists(ctx, "bucket1")
	if err != nil {
		t.Fatalf("BucketExists failed: %v", err)
	}
	if exists {
		t.Error("bucket1 should not exist yet")
	}

	if err := store.CreateBucket(ctx, "bucket1"); err != nil {
		t.Fatalf("CreateBucket failed: %v", err)
	}
	exists, err = store.BucketExists(ctx, "bucket1")
	if err != nil {
		t.Fatalf("BucketExists failed: %v", err)
	}
	if !exists {
		t.Error("bucket1 should exist after CreateBucket")
	}

	content := []byte("image bytes")
	key, err := store.Upload(ctx, bytes.NewReader(content), "bucket1", "img-001.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if key != "img-001.png" {
		t.Errorf("Upload returned key %q, want img-001.png", key)
	}

	exists, err = store.FileExists(ctx, "bucket1", "img-001.png")
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if !exists {
		t.Error("uploaded object should exist")
	}

	body, err := store.Download(ctx, "bucket1", "img-001.png")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Download returned %q, want %q", got, content)
	}
}

func TestLocalStoreDownloadMissing(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	_, err = store.Download(ctx, "bucket1", "nope.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Download of missing object returned %v, want ErrNotFound", err)
	}
}

func TestLocalStoreUploadCreatesBucket(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	// Upload into a bucket that was never explicitly created.
	if _, err := store.Upload(ctx, bytes.NewReader([]byte("x")), "fresh", "a.png"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	exists, err := store.FileExists(ctx, "fresh", "a.png")
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if !exists {
		t.Error("object should exist after upload into fresh bucket")
	}
}

func TestLocalStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if _, err := store.Upload(ctx, bytes.NewReader([]byte("v1")), "b", "k"); err != nil {
		t.Fatalf("first Upload failed: %v", err)
	}
	if _, err := store.Upload(ctx, bytes.NewReader([]byte("v2")), "b", "k"); err != nil {
		t.Fatalf("second Upload failed: %v", err)
	}

	body, err := store.Download(ctx, "b", "k")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer body.Close()
	got, _ := io.ReadAll(body)
	if string(got) != "v2" {
		t.Errorf("Download returned %q, want v2", got)
	}
}
