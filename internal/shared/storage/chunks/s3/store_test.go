package s3

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/shared/storage/chunks"
)

// fakeS3 keeps objects in a map and pages listings two keys at a time.
type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	deleteCalls int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	for _, obj := range in.Delete.Objects {
		delete(f.objects, aws.ToString(obj.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	if len(keys) > 2 {
		keys = keys[:2]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "obj/00000000", want: "obj/00000000"},
		{name: "simple prefix", prefix: "chunks", key: "obj/00000000", want: "chunks/obj/00000000"},
		{name: "prefix trailing slash", prefix: "chunks/", key: "obj/00000000", want: "chunks/obj/00000000"},
		{name: "prefix and key slashes", prefix: "/chunks/", key: "/obj/00000000", want: "chunks/obj/00000000"},
		{name: "nested prefix", prefix: "vault/chunks", key: "obj/00000000", want: "vault/chunks/obj/00000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestWriteReadKeys(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := NewWithClient(fake, "bucket", "chunks/")

	require.NoError(t, s.Write(ctx, "obj-1", 3, []byte("payload")))
	_, ok := fake.objects["chunks/obj-1/00000003"]
	assert.True(t, ok, "unexpected keys: %v", fake.objects)

	got, err := s.Read(ctx, "obj-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	_, err = s.Read(ctx, "obj-1", 4)
	assert.ErrorIs(t, err, chunks.ErrNotFound)
}

func TestDeleteAllPagesThroughPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := NewWithClient(fake, "bucket", "chunks")

	for seq := 0; seq < 5; seq++ {
		require.NoError(t, s.Write(ctx, "obj-1", seq, []byte{byte(seq)}))
	}
	require.NoError(t, s.Write(ctx, "obj-10", 0, []byte("other")))

	require.NoError(t, s.DeleteAll(ctx, "obj-1"))
	assert.Equal(t, 1, fake.deleteCalls)
	assert.Len(t, fake.objects, 1)
	_, ok := fake.objects["chunks/obj-10/00000000"]
	assert.True(t, ok, "sibling object with a shared id prefix must survive")

	require.NoError(t, s.DeleteAll(ctx, "obj-1"))
}
