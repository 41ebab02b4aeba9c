// Package storage provides the S3/MinIO client used to archive sync run
// reports.
//
// The Client interface wraps the subset of minio-go operations the report
// uploader needs, so tests can substitute the mock implementation under
// storage/mocks.
package storage
