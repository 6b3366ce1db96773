package blob

import (
	"context"
	"fmt"
	"os"
)

// Options selects and parameterizes a blob backend. The zero value means
// filesystem with the default root.
type Options struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open selects a blob.Store implementation using environment variables.
//
//	ROLLCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	ROLLCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./artifacts)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := Driver(os.Getenv("ROLLCORE_BLOB_DRIVER"))
	if driver == DriverS3 {
		return OpenFromEnv(ctx)
	}
	return OpenWith(ctx, Options{
		Driver: driver,
		FSRoot: os.Getenv("ROLLCORE_BLOB_FS_ROOT"),
	})
}

// OpenWith selects a blob.Store implementation from explicit options. An
// empty driver means filesystem.
func OpenWith(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
