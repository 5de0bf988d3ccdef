package common

// UnsetID marks an entry or media that has never been persisted.
const UnsetID int64 = -1

// DefaultChunkSize is the maximum size of a single media chunk row (1 MiB).
const DefaultChunkSize = 1 << 20

// DefaultMimeType is stored when the content type of a media is unknown.
const DefaultMimeType = "application/octet-stream"
