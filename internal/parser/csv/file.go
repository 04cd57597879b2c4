package csv

import (
	"context"
	"fmt"

	"csvrecord/internal/datasource"
	"csvrecord/internal/datasource/file"
	"csvrecord/internal/linesource"
	"csvrecord/internal/schema"
	"csvrecord/pkg/records"
)

// OpenSource opens ds as a line source configured by opt.
func OpenSource(ctx context.Context, ds datasource.Source, opt Options) (*linesource.Reader, error) {
	rc, err := ds.Open(ctx)
	if err != nil {
		return nil, err
	}
	src, err := linesource.New(rc, opt.lineOptions())
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("line source: %w", err)
	}
	return src, nil
}

// OpenFile opens the local file at path as a line source.
func OpenFile(ctx context.Context, path string, opt Options) (*linesource.Reader, error) {
	return OpenSource(ctx, file.NewLocal(path), opt)
}

// FileReadAll reads and maps every record of the file at path and closes it.
func FileReadAll(ctx context.Context, path string, desc schema.Descriptor, opt Options) ([]records.Record, error) {
	src, err := OpenFile(ctx, path, opt)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return ReadAll(src, desc, opt)
}

// FileIterator opens a streaming session over the file at path. The caller
// must Close the returned Iterator.
func FileIterator(ctx context.Context, path string, desc schema.Descriptor, opt Options) (*Iterator, error) {
	src, err := OpenFile(ctx, path, opt)
	if err != nil {
		return nil, err
	}
	return NewIterator(src, desc, opt), nil
}
