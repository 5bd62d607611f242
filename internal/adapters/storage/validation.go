package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted for outbox artifacts.
var AllowedContentTypes = map[string]bool{
	"application/json": true,
	"message/rfc822":   true,
	"text/markdown":    true,
	"text/plain":       true,
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOService) ValidateContentType(contentType string) error {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the object size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("object size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("object size %d exceeds maximum of %d bytes", sizeBytes, s.maxFileSize)
	}
	return nil
}
