// Package storage keeps generated documents in one object storage bucket
// and hands out short-lived download links for them.
//
// S3, MinIO and Google Cloud Storage are supported. Each Storage value is
// bound to a single bucket chosen at construction.
package storage
