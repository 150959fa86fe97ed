package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// fileOutput appends one rendered line per record to files whose paths are
// themselves rendered from the record, so a single output can split a run
// across per-source files. Files and their directories are created on first
// use and kept open for the lifetime of the output. With compression on,
// every file is a zstd stream finalized on close.
type fileOutput struct {
	path     *template
	line     *template
	compress bool
	files    map[string]io.WriteCloser
}

func newFileOutput() (*fileOutput, error) {
	pathTmpl := getEnv("FILE_PATH", "/tmp/{parent/child}-{source}-drain.log")
	lineTmpl := getEnv("FILE_FORMAT", "[{timestamp}]: {message}")

	var compress bool
	switch mode := getEnv("FILE_COMPRESS", "none"); mode {
	case "none":
	case "zstd":
		compress = true
	default:
		return nil, fmt.Errorf("file: unknown FILE_COMPRESS=%q, expected none or zstd", mode)
	}

	path, err := parseTemplate(pathTmpl)
	if err != nil {
		return nil, fmt.Errorf("file: FILE_PATH: %w", err)
	}
	line, err := parseTemplate(lineTmpl)
	if err != nil {
		return nil, fmt.Errorf("file: FILE_FORMAT: %w", err)
	}

	return &fileOutput{
		path:     path,
		line:     line,
		compress: compress,
		files:    make(map[string]io.WriteCloser),
	}, nil
}

func (o *fileOutput) name() string { return "file" }

func (o *fileOutput) feed(rec record) error {
	path, err := o.path.render(rec)
	if err != nil {
		// A record the templates cannot address is dropped, not a sink
		// failure: later records may still render fine.
		log.Printf("file: dropping record, path: %v", err)
		return nil
	}
	line, err := o.line.render(rec)
	if err != nil {
		log.Printf("file: dropping record, line: %v", err)
		return nil
	}

	w, err := o.sink(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (o *fileOutput) sink(path string) (io.Writer, error) {
	if w, ok := o.files[path]; ok {
		return w, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	log.Printf("file: opening %s", path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	var w io.WriteCloser = f
	if o.compress {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		w = &zstdFile{zw: zw, f: f}
	}
	o.files[path] = w
	return w, nil
}

func (o *fileOutput) close() error {
	var firstErr error
	for path, w := range o.files {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", path, err)
		}
	}
	return firstErr
}

// zstdFile closes the compressed stream before the backing file so the
// zstd frame footer lands on disk.
type zstdFile struct {
	zw *zstd.Encoder
	f  *os.File
}

func (z *zstdFile) Write(p []byte) (int, error) { return z.zw.Write(p) }

func (z *zstdFile) Close() error {
	if err := z.zw.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}
