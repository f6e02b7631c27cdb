package persistence

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/balltree/internal/resource"
	"github.com/hupe1980/balltree/tree"
)

const fileBufferSize = 256 * 1024

// SaveFile writes s to filename atomically: the data goes to a temporary
// file in the same directory, which is synced and renamed over the target.
func SaveFile(ctx context.Context, filename string, s *tree.Structure, optFns ...Option) error {
	opts := newOptions(optFns)
	return writeFileAtomic(filename, func(w io.Writer) error {
		return Encode(resource.NewRateLimitedWriter(ctx, w, opts.controller), s, optFns...)
	})
}

// LoadFile reads a structure written by SaveFile.
func LoadFile(ctx context.Context, filename string, optFns ...Option) (*tree.Structure, error) {
	opts := newOptions(optFns)

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(resource.NewRateLimitedReader(ctx, f, opts.controller), fileBufferSize)
	s, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadByte(); err == nil {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorrupted)
	} else if err != io.EOF {
		return nil, err
	}
	return s, nil
}

func writeFileAtomic(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, fileBufferSize)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}
	tmpName = ""

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
