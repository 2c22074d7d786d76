// Package validation guards the files the LUT readers open: path sanity,
// size limits and a cheap content sniff that keeps binary data away from
// the text parsers.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Resource limits (CWE-400).
const (
	// MaxFileSize is the largest LUT file accepted (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// sniffLen is how much of a file Sniff looks at.
	sniffLen = 512
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotRegularFile   = errors.New("not a regular file")
)

// ValidatePath rejects empty paths, overlong paths and paths carrying NUL
// or control characters. Reference paths read from files go through it
// before touching the filesystem.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// NormalizePath makes two spellings of the same file compare equal: both
// separators are accepted, the path is made absolute against dir when
// relative, then cleaned.
func NormalizePath(dir, path string) string {
	path = filepath.FromSlash(strings.ReplaceAll(path, `\`, "/"))
	if !filepath.IsAbs(path) {
		if dir == "" {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
		}
		path = filepath.Join(dir, path)
	}
	return filepath.Clean(path)
}

// StatFile checks that path names a regular file within MaxFileSize.
func StatFile(path string) (os.FileInfo, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, path, info.Size(), MaxFileSize)
	}
	return info, nil
}

// ReadFile reads a whole file after StatFile accepted it.
func ReadFile(path string) ([]byte, error) {
	if _, err := StatFile(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f)
}

// ReadAll reads r up to MaxFileSize bytes; larger input is an error.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, MaxFileSize)
	}
	return data, nil
}

// FileType is what Sniff makes of a file head.
type FileType string

const (
	FileTypeXML    FileType = "xml"
	FileTypeText   FileType = "text"
	FileTypeBinary FileType = "binary"
	FileTypeEmpty  FileType = "empty"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

// Sniff classifies the first bytes of a file. UTF-16 input is only
// recognized with a BOM and is reported as XML, the one format that may
// use it.
func Sniff(data []byte) FileType {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		return FileTypeXML
	}
	data = bytes.TrimPrefix(data, bomUTF8)
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case len(trimmed) == 0:
		return FileTypeEmpty
	case !isLikelyText(data):
		return FileTypeBinary
	case trimmed[0] == '<':
		return FileTypeXML
	}
	return FileTypeText
}

// isLikelyText reports whether buf looks like ASCII or UTF-8 text.
func isLikelyText(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	printable, control := 0, 0
	for _, b := range buf {
		switch {
		case b >= 0x20 && b <= 0x7e, b == '\t', b == '\n', b == '\r':
			printable++
		case b < 0x20:
			control++
		}
		// UTF-8 lead and continuation bytes count for neither.
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
