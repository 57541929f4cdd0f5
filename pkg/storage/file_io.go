/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: file_io.go
Description: File collaborator for the pipeline. Reads whole files into bit buffers
with a size cap and optional chunked progress, and writes buffers back out with the
final byte zero-padded.
*/

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kleascm/bitlens/pkg/bits"
)

const (
	// MaxFileSize is the largest file accepted for reading (1 GiB)
	MaxFileSize int64 = 1 << 30

	// ChunkSize is the read granularity for progress reporting (1 MiB)
	ChunkSize = 1 << 20
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrEmptyBuffer  = errors.New("cannot write empty bit buffer")
)

// LoadProgress is sent after every chunk read by ReadFileWithProgress
type LoadProgress struct {
	Loaded int64 `json:"loaded"`
	Total  int64 `json:"total"`
}

// Fraction returns the loaded share in [0, 1]
func (p LoadProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Loaded) / float64(p.Total)
}

func openChecked(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s is %d bytes (max %d bytes)", ErrFileTooLarge, path, info.Size(), MaxFileSize)
	}
	return f, info.Size(), nil
}

// ReadBytes reads a whole file subject to MaxFileSize. Its signature matches
// pipeline.ByteLoader.
func ReadBytes(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, size, err := openChecked(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data := make([]byte, 0, size)
	buf := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// ReadFile reads a whole file as MSB-first bits
func ReadFile(path string) (*bits.Buffer, error) {
	data, err := ReadBytes(context.Background(), path)
	if err != nil {
		return nil, err
	}
	return bits.FromBytes(data), nil
}

// ReadFileWithProgress reads a file in ChunkSize pieces, sending a LoadProgress after
// each chunk. Sends never block past ctx; progress is closed when the read ends.
func ReadFileWithProgress(ctx context.Context, path string, progress chan<- LoadProgress) (*bits.Buffer, error) {
	if progress != nil {
		defer close(progress)
	}

	f, size, err := openChecked(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data := make([]byte, 0, size)
	chunk := make([]byte, ChunkSize)
	var loaded int64
	for {
		n, err := io.ReadFull(f, chunk)
		if n > 0 {
			data = append(data, chunk[:n]...)
			loaded += int64(n)
			if progress != nil {
				select {
				case progress <- LoadProgress{Loaded: loaded, Total: size}:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return bits.FromBytes(data), nil
}

// WriteFile writes buf to path, zero-padding the final byte
func WriteFile(path string, buf *bits.Buffer) error {
	if buf.IsEmpty() {
		return ErrEmptyBuffer
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
