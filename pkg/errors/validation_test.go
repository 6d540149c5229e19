package errors

import (
	"testing"
)

func TestValidateAssetID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "wood", false},
		{"dash and digits", "gold-frame-02", false},
		{"ulid", "01HZX3R8TQ0000000000000000", false},
		{"dotted", "v1.2", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"traversal", "..", true},
		{"embedded traversal", "a..b", true},
		{"slash", "frames/wood", true},
		{"backslash", "frames\\wood", true},
		{"leading dot", ".hidden", true},
		{"space", "my frame", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"png", "photo.png", ""},
		{"upper jpeg", "IMG_0001.JPEG", ""},
		{"webp", "sticker.webp", ""},
		{"gif", "anim.gif", ""},

		{"empty", "", ErrCodeInvalidInput},
		{"path", "dir/photo.png", ErrCodeInvalidInput},
		{"hidden", ".photo.png", ErrCodeInvalidInput},
		{"control char", "pho\x01to.png", ErrCodeInvalidInput},
		{"svg", "vector.svg", ErrCodeInvalidFormat},
		{"no extension", "photo", ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageFilename(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateImageFilename(%q) code = %q, want %q", tt.input, got, tt.wantCode)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"frame image", "frames/wood/frame.png", false},
		{"upload", "uploads/photo.jpg", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "frames/../../etc", true},
		{"backslash", "frames\\wood", true},
		{"null byte", "frames\x00", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://cdn.example.com/frames", false},
		{"http://localhost:8080", false},
		{"", true},
		{"ftp://example.com", true},
		{"file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
