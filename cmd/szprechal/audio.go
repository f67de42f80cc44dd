package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

// fileAudioSource feeds a pre-recorded clip file through the capture
// pipeline in fixed-size chunks.
type fileAudioSource struct {
	path string
	file *os.File
}

func newFileAudioSource(path string) *fileAudioSource {
	return &fileAudioSource{path: path}
}

func (f *fileAudioSource) Start(ctx context.Context) (<-chan []byte, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip %s: %w", f.path, err)
	}
	f.file = file

	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		for {
			buf := make([]byte, 32*1024)
			n, err := file.Read(buf)
			if n > 0 {
				select {
				case chunks <- buf[:n]:
				case <-ctx.Done():
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return chunks, nil
}

func (f *fileAudioSource) Stop() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}
