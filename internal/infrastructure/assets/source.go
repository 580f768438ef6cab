package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Source fetches raw bytes for the references it understands
type Source interface {
	Name() string
	Match(ref string) bool
	Fetch(ctx context.Context, ref, credential string) ([]byte, error)
}

// cacheable sources are worth caching; credentialed ones are keyed per credential
type cacheable interface {
	Cacheable() bool
	Credentialed() bool
}

// DataURLSource decodes inline data: URLs
type DataURLSource struct {
	MaxBytes int64
}

func (DataURLSource) Name() string { return "data" }

func (DataURLSource) Match(ref string) bool { return strings.HasPrefix(ref, "data:") }

func (DataURLSource) Cacheable() bool    { return false }
func (DataURLSource) Credentialed() bool { return false }

// Fetch implements Source. Only base64 payloads are accepted.
func (s DataURLSource) Fetch(_ context.Context, ref, _ string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data URL must be base64 encoded")
	}
	if s.MaxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > s.MaxBytes {
		return nil, fmt.Errorf("data URL exceeds %d bytes", s.MaxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	return data, nil
}

// ObjectGetter reads whole objects from object storage
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)
}

// ObjectSource serves s3://bucket/key and object:key references
type ObjectSource struct {
	Store    ObjectGetter
	MaxBytes int64
}

func (ObjectSource) Name() string { return "object" }

func (ObjectSource) Match(ref string) bool {
	return strings.HasPrefix(ref, "s3://") || strings.HasPrefix(ref, "object:")
}

func (ObjectSource) Cacheable() bool    { return true }
func (ObjectSource) Credentialed() bool { return false }

// Fetch implements Source
func (s ObjectSource) Fetch(ctx context.Context, ref, _ string) ([]byte, error) {
	bucket, key, err := parseObjectRef(ref)
	if err != nil {
		return nil, err
	}
	return s.Store.GetObject(ctx, bucket, key, s.MaxBytes)
}

// parseObjectRef splits s3://bucket/key; object:key uses the default bucket
func parseObjectRef(ref string) (bucket, key string, err error) {
	if k, ok := strings.CutPrefix(ref, "object:"); ok {
		if k = strings.TrimPrefix(k, "/"); k == "" {
			return "", "", errors.New("object reference has no key")
		}
		return "", k, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("parse object reference: %w", err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.New("object reference must be s3://bucket/key")
	}
	return u.Host, key, nil
}
