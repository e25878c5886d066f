package s3infra

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/community-notify/internal/cache"
	"github.com/community-notify/internal/domain"
)

// CacheStore implements cache.Store on an S3 bucket. Each named cache is
// a key prefix; each entry is one JSON object keyed by the hash of its
// request URL. S3 puts are replace-by-key, which gives the store its
// last-write-wins semantics for free.
type CacheStore struct {
	client *s3.Client
	bucket string
}

func NewCacheStore(client *s3.Client, bucket string) *CacheStore {
	return &CacheStore{client: client, bucket: bucket}
}

func (s *CacheStore) Open(_ context.Context, name string) (cache.Cache, error) {
	return &bucketCache{store: s, name: name}, nil
}

func (s *CacheStore) Names(ctx context.Context) ([]string, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("list cache names: %w", err)
	}
	names := make([]string, 0, len(out.CommonPrefixes))
	for _, p := range out.CommonPrefixes {
		if p.Prefix != nil {
			names = append(names, strings.TrimSuffix(*p.Prefix, "/"))
		}
	}
	return names, nil
}

func (s *CacheStore) Drop(ctx context.Context, name string) error {
	prefix := name + "/"
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return fmt.Errorf("list cache %s: %w", name, err)
		}
		if len(out.Contents) == 0 {
			return nil
		}
		objects := make([]types.ObjectIdentifier, 0, len(out.Contents))
		for _, obj := range out.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects},
		}); err != nil {
			return fmt.Errorf("drop cache %s: %w", name, err)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return nil
		}
		token = out.NextContinuationToken
	}
}

type bucketCache struct {
	store *CacheStore
	name  string
}

func (c *bucketCache) objectKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return c.name + "/" + hex.EncodeToString(sum[:])
}

func (c *bucketCache) Match(ctx context.Context, key string) (*domain.CacheEntry, error) {
	out, err := c.store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.store.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("cache entry %q: %w", key, domain.ErrNotFound)
		}
		return nil, err
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	var e domain.CacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &e, nil
}

func (c *bucketCache) Put(ctx context.Context, e *domain.CacheEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = c.store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.store.bucket),
		Key:         aws.String(c.objectKey(e.Key)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (c *bucketCache) Delete(ctx context.Context, key string) error {
	_, err := c.store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.store.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	return err
}
