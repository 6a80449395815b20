package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = data
	f.contentTypes[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", aws.ToString(in.Key))
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3StorePrefixRoundTrip(t *testing.T) {
	client := newFakeS3()
	s := NewS3StoreWithClient(client, "results", "roiscope/")
	ctx := context.Background()

	key := RunKey(s, "ACME", "run-1", "ModelOutput_SCN_BASE.csv")
	if key != "ACME/run-1/ModelOutput_SCN_BASE.csv" {
		t.Fatalf("RunKey = %q", key)
	}

	data := []byte("step_id\nS01\n")
	if err := s.Put(ctx, key, data, ContentTypeCSV); err != nil {
		t.Fatalf("Put: %v", err)
	}

	stored := "results/roiscope/ACME/run-1/ModelOutput_SCN_BASE.csv"
	if _, ok := client.objects[stored]; !ok {
		t.Fatalf("expected object %s, have %v", stored, client.objects)
	}
	if client.contentTypes[stored] != ContentTypeCSV {
		t.Errorf("content type = %q, want %q", client.contentTypes[stored], ContentTypeCSV)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get returned %q, want %q", got, data)
	}

	if loc := s.Location(key); loc != "s3://results/roiscope/ACME/run-1/ModelOutput_SCN_BASE.csv" {
		t.Errorf("Location = %q", loc)
	}
	if _, err := s.Get(ctx, "ACME/run-1/missing.csv"); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestGCSStoreLocation(t *testing.T) {
	s := &GCSStore{bucket: "results", prefix: "roiscope"}
	key := RunKey(s, "ACME", "run-1", "run.json")
	if loc := s.Location(key); loc != "gs://results/roiscope/ACME/run-1/run.json" {
		t.Errorf("Location = %q", loc)
	}
}

func TestPrefixed(t *testing.T) {
	tests := []struct{ prefix, key, want string }{
		{"", "a.csv", "a.csv"},
		{"p", "a.csv", "p/a.csv"},
		{"p/", "a.csv", "p/a.csv"},
	}
	for _, tt := range tests {
		if got := prefixed(tt.prefix, tt.key); got != tt.want {
			t.Errorf("prefixed(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}
