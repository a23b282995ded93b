package audio

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// BlobStore keeps clips in a Go CDK bucket (file://, mem://).
type BlobStore struct {
	bucket *blob.Bucket
}

// OpenBlobStore opens the bucket at url, e.g.
// "file:///var/lib/voxlate/audio?create_dir=true" or "mem://".
func OpenBlobStore(ctx context.Context, url string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open audio bucket %q: %w", url, err)
	}
	return &BlobStore{bucket: bucket}, nil
}

func (s *BlobStore) Save(ctx context.Context, clip engine.Audio) (string, error) {
	data, ext, contentType := Encode(clip)
	key := newKey(ext)
	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("write audio %q: %w", key, err)
	}
	return key, nil
}

func (s *BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !ValidKey(key) {
		return nil, "", ErrNotFound
	}
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read audio %q: %w", key, err)
	}
	return r, r.ContentType(), nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
