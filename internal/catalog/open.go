// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
	"golang.org/x/net/html/charset"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrEmptyFile is returned when a document exists but has no content.
	ErrEmptyFile = errors.New("document is empty")
	// ErrEmptyArchive is returned for a zip archive without entries.
	ErrEmptyArchive = errors.New("archive has no entries")
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// OpenDocument opens a channel-mapping or source-definition document and
// transparently decompresses it based on its suffix: .gz, .xz, .lzma, or the
// first entry of a .zip archive.
func OpenDocument(path string) (io.ReadCloser, error) {
	// #nosec G304 -- document paths come from source definitions or the caller's download
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, f}}, nil

	case ".xz", ".lzma":
		br := bufio.NewReader(f)
		r, err := newLZMAReader(br)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%s %s: %w", strings.TrimPrefix(ext, "."), path, err)
		}
		return &stackedReader{Reader: r, closers: []io.Closer{f}}, nil

	case ".zip":
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zip %s: %w", path, err)
		}
		if len(zr.File) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s", ErrEmptyArchive, path)
		}
		entry, err := zr.File[0].Open()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zip %s: open %s: %w", path, zr.File[0].Name, err)
		}
		return &stackedReader{Reader: entry, closers: []io.Closer{entry, f}}, nil
	}

	return f, nil
}

// newLZMAReader accepts both xz containers and legacy .lzma streams; feeds
// named .lzma are often xz in practice.
func newLZMAReader(br *bufio.Reader) (io.Reader, error) {
	head, err := br.Peek(len(xzMagic))
	if err == nil && bytes.Equal(head, xzMagic) {
		return xz.NewReader(br)
	}
	return lzma.NewReader(br)
}

// stackedReader closes every layer of a decompression stack, innermost first.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewDecoder returns a streaming XML decoder for EPG documents. Entities beyond
// the XML builtins are rejected and non-UTF-8 encodings are converted.
func NewDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = make(map[string]string)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}
