// Package archive copies downloaded cube files into object storage.
//
// Buckets are addressed by gocloud URL (s3://, gs://, file://); the caller
// registers the drivers it needs. Archival is write-only: nothing ever reads
// the bucket back to skip a fetch.
package archive
