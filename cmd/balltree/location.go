package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/balltree/blobstore"
	minioblob "github.com/hupe1980/balltree/blobstore/minio"
	s3blob "github.com/hupe1980/balltree/blobstore/s3"
)

// location is where a tree is read from or written to: a local path, or a
// blob in a store.
//
//	points.bt                      local file
//	s3://bucket/trees/points.bt    AWS S3 (default credential chain)
//	minio://host:9000/bucket/key   MinIO (MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_SECURE)
type location struct {
	path  string
	store blobstore.BlobStore
	name  string
}

func (l location) String() string {
	if l.store == nil {
		return l.path
	}
	return l.name
}

func parseLocation(ctx context.Context, raw string) (location, error) {
	if !strings.Contains(raw, "://") {
		return location{path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	key := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "file":
		return location{path: u.Path}, nil

	case "s3":
		if u.Host == "" || key == "" {
			return location{}, fmt.Errorf("invalid s3 location %q: want s3://bucket/key", raw)
		}
		store, err := s3blob.New(ctx, u.Host, s3blob.WithRegion(os.Getenv("AWS_REGION")))
		if err != nil {
			return location{}, fmt.Errorf("failed to configure s3: %w", err)
		}
		return location{store: store, name: key}, nil

	case "minio":
		bucket, name, ok := strings.Cut(key, "/")
		if u.Host == "" || !ok || bucket == "" || name == "" {
			return location{}, fmt.Errorf("invalid minio location %q: want minio://host/bucket/key", raw)
		}
		store, err := minioblob.New(minioblob.Config{
			Endpoint:  u.Host,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Secure:    os.Getenv("MINIO_SECURE") == "true",
			Bucket:    bucket,
		})
		if err != nil {
			return location{}, fmt.Errorf("failed to configure minio: %w", err)
		}
		return location{store: store, name: name}, nil

	default:
		return location{}, fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
}
