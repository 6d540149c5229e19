package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// assetIDRegex matches asset directory names and history entry IDs.
var assetIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateAssetID validates a frame, decoration or history identifier.
// IDs name a single directory or file stem, so they may not contain
// separators or traversal sequences.
func ValidateAssetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "asset id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "asset id too long (max 128 characters)")
	}
	if strings.Contains(id, "..") || !assetIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid asset id: %q", id)
	}
	return nil
}

// ValidateFilename validates an uploaded file name. It must be a plain
// basename; hidden files are rejected.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "filename too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "filename cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "filename cannot be a hidden file")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "filename contains invalid control characters")
		}
	}
	return nil
}

// imageExtensions are the upload types accepted by the asset store.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ValidateImageFilename validates name and requires a supported image
// extension (jpg, jpeg, png, gif or webp).
func ValidateImageFilename(name string) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExtensions[ext] {
		return New(ErrCodeInvalidFormat, "unsupported image type %q (want jpg, jpeg, png, gif or webp)", ext)
	}
	return nil
}

// ValidatePath validates a relative asset reference such as
// "frames/wood/frame.png" for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
