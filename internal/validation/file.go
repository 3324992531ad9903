// Package validation holds the pure checks that run before any network call.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"companydocs/internal/apperr"
)

// SniffLen is the number of leading bytes SniffContentType needs.
const SniffLen = 261

const genericContentType = "application/octet-stream"

// FileCandidate describes a file as declared by the client.
type FileCandidate struct {
	Name     string
	Size     int64
	MimeType string
}

// FileValidator checks declared file attributes. A nil or empty
// AllowedExtensions accepts any extension.
type FileValidator struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// NewFileValidator builds a validator; extensions are normalized to ".ext" lowercase.
func NewFileValidator(maxBytes int64, allowed []string) *FileValidator {
	exts := make([]string, 0, len(allowed))
	for _, e := range allowed {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return &FileValidator{MaxBytes: maxBytes, AllowedExtensions: exts}
}

// Validate returns nil when f may be uploaded, otherwise a validation error whose
// message explains the rejection.
func (v *FileValidator) Validate(f FileCandidate) error {
	if strings.TrimSpace(f.Name) == "" {
		return apperr.Validation("file name is required")
	}
	if f.Size <= 0 {
		return apperr.Validation("file is empty")
	}
	if v.MaxBytes > 0 && f.Size > v.MaxBytes {
		return apperr.Validationf("file size %s exceeds the %s limit", FormatSize(f.Size), FormatSize(v.MaxBytes))
	}
	if len(v.AllowedExtensions) > 0 {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if !v.allowed(ext) {
			if ext == "" {
				return apperr.Validation("files without an extension are not allowed")
			}
			return apperr.Validationf("file type %q is not allowed", ext)
		}
	}
	return nil
}

func (v *FileValidator) allowed(ext string) bool {
	for _, a := range v.AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// SniffContentType keeps a specific declared MIME type and otherwise replaces it
// with the type detected from the leading bytes.
func SniffContentType(head []byte, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != genericContentType {
		return declared
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || kind.MIME.Value == "" {
		if declared == "" {
			return genericContentType
		}
		return declared
	}
	return kind.MIME.Value
}

// FormatSize renders a byte count using binary units.
func FormatSize(bytes int64) string {
	const (
		KiB = 1024
		MiB = KiB * 1024
		GiB = MiB * 1024
	)

	switch {
	case bytes >= GiB && bytes%GiB == 0:
		return fmt.Sprintf("%d GiB", bytes/GiB)
	case bytes >= GiB:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/float64(GiB))
	case bytes >= MiB && bytes%MiB == 0:
		return fmt.Sprintf("%d MiB", bytes/MiB)
	case bytes >= MiB:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/float64(MiB))
	case bytes >= KiB:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/float64(KiB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
