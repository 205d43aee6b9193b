package cloudwriter

import "context"

// CloudWriter buffers an object and stores it remotely on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close(ctx context.Context) error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}
