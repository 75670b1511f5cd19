// Package localfs reads documents from the local filesystem for upload.
package localfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// Content types the processing service accepts.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensionTypes = map[string]string{
	".pdf":  ContentTypePDF,
	".docx": ContentTypeDOCX,
}

// Sniffed types too generic to trust over the file extension. DOCX files are
// zip archives and small ones are not always recognised as Word documents.
var genericTypes = []string{
	"application/zip",
	"application/octet-stream",
	"text/plain",
}

// LoadFiles reads each path into an upload. Directories contribute their
// supported, non-hidden regular files (one level deep). Files named directly
// are always loaded so the orchestrator can reject unsupported types by name.
func LoadFiles(paths []string) ([]domain.FileUpload, error) {
	var uploads []domain.FileUpload
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.IsDir() {
			upload, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, upload)
			continue
		}

		files, err := listDir(path)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			upload, err := LoadFile(file)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, upload)
		}
	}
	return uploads, nil
}

// LoadFile reads a single file and detects its content type.
func LoadFile(path string) (domain.FileUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FileUpload{}, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.FileUpload{
		Name:        filepath.Base(path),
		ContentType: DetectContentType(filepath.Base(path), data),
		Data:        data,
	}, nil
}

// DetectContentType sniffs data, falling back to the extension of name when
// the sniffed type is a generic container.
func DetectContentType(name string, data []byte) string {
	detected := mimetype.Detect(data)
	byExt, known := extensionTypes[strings.ToLower(filepath.Ext(name))]

	if known {
		for _, generic := range genericTypes {
			if detected.Is(generic) {
				return byExt
			}
		}
	}
	return detected.String()
}

// Supported reports whether name has an extension the service accepts.
func Supported(name string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// listDir returns the supported files directly inside dir, sorted by name.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) || !Supported(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
