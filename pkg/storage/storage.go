package storage

import (
	"io"
)

// Bucket names for the three kinds of stored objects.
const (
	BucketMatchVideos = "match-videos"
	BucketAvatars     = "avatars"
	BucketReels       = "highlight-reels"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage is the object store behind match videos, avatars and generated
// reels. Paths returned by SaveFile are relative to the bucket and are what
// gets persisted on the owning record.
type Storage interface {
	SaveFile(bucket string, file io.Reader, info FileInfo) (string, error)
	OpenFile(bucket, path string) (io.ReadSeekCloser, error)
	DeleteFile(bucket, path string) error
	PublicURL(bucket, path string) string
}
