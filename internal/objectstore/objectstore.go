// Package objectstore uploads provider media and verification documents to
// S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Bucket is a logical bucket name. Deployments map each to a physical bucket.
type Bucket string

const (
	BucketBrands       Bucket = "brands"
	BucketVerification Bucket = "verification"
	BucketVenues       Bucket = "venues"
)

// ErrEmptyFile is returned when an upload carries no bytes.
var ErrEmptyFile = errors.New("objectstore: empty file")

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext returns the lower-cased extension of the original filename, including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Store writes and removes objects. Put returns the public URL of the stored object.
type Store interface {
	Put(ctx context.Context, bucket Bucket, key string, f File) (string, error)
	Delete(ctx context.Context, bucket Bucket, key string) error
}

// Object identifies a stored object, used to roll back partial uploads.
type Object struct {
	Bucket Bucket
	Key    string
}
