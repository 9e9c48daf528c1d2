package filesync

import "errors"

var (
	// ErrSnapshotStoreRequired is returned when no snapshot store is provided.
	ErrSnapshotStoreRequired = errors.New("snapshot store is required")

	// ErrRootNotDirectory is returned when the root exists but is not a directory.
	ErrRootNotDirectory = errors.New("root is not a directory")
)
