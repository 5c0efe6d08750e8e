package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vango-dev/observable/pkg/store"
)

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	objects     map[string][]byte
	contentType map[string]string
	getErr      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.contentType[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	if _, err := store.Define(s, "count", 3); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Define(s, "title", "draft"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveRestoreMemory(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	src := newTestStore(t)
	doc, err := Save(ctx, src, backend, "latest.json")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if doc.Version != FormatVersion || doc.TakenAt.IsZero() || len(doc.Cells) != 2 {
		t.Fatalf("document = %+v", doc)
	}

	dst := store.New()
	count, _ := store.Define(dst, "count", 0)
	title, _ := store.Define(dst, "title", "")

	if _, err := Restore(ctx, dst, backend, "latest.json"); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if count.Get() != 3 || title.Get() != "draft" {
		t.Fatalf("restored count=%d title=%q", count.Get(), title.Get())
	}
}

func TestRestoreMissing(t *testing.T) {
	_, err := Restore(context.Background(), store.New(), NewMemoryBackend(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Restore() error = %v, want ErrNotFound", err)
	}
}

func TestDecodeVersion(t *testing.T) {
	if _, err := Decode([]byte(`{"version": 2, "cells": {}}`)); !errors.Is(err, ErrVersion) {
		t.Fatalf("Decode() error = %v, want ErrVersion", err)
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("Decode() should reject invalid JSON")
	}
}

func TestMemoryBackendCopies(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	data := []byte("abc")
	if err := b.Put(ctx, "k", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'x'

	got, err := b.Get(ctx, "k")
	if err != nil || string(got) != "abc" {
		t.Fatalf("Get() = %q, %v", got, err)
	}

	_ = b.Put(ctx, "other", nil)
	keys, _ := b.List(ctx, "k")
	if len(keys) != 1 || keys[0] != "k" {
		t.Fatalf("List() = %v", keys)
	}

	_ = b.Delete(ctx, "k")
	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete error = %v", err)
	}
}

func TestS3Backend(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	backend := NewS3Backend(client, "bucket", "snapshots/")

	if _, err := Save(ctx, newTestStore(t), backend, "a.json"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, ok := client.objects["snapshots/a.json"]; !ok {
		t.Fatalf("object keys = %v, want snapshots/a.json", client.objects)
	}
	if ct := client.contentType["snapshots/a.json"]; ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	doc, err := Load(ctx, backend, "a.json")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if string(doc.Cells["title"]) != `"draft"` {
		t.Fatalf("title = %s", doc.Cells["title"])
	}

	keys, err := backend.List(ctx, "")
	if err != nil || len(keys) != 1 || keys[0] != "a.json" {
		t.Fatalf("List() = %v, %v", keys, err)
	}

	if _, err := backend.Get(ctx, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	client.getErr = errors.New("access denied")
	if _, err := backend.Get(ctx, "a.json"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() with failing client error = %v", err)
	}

	if err := backend.Delete(ctx, "a.json"); err != nil {
		t.Fatal(err)
	}
	if len(client.objects) != 0 {
		t.Fatalf("objects after Delete = %v", client.objects)
	}
}
