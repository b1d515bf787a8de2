package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/idea-board/internal/observability"
)

const defaultMaxImageBytes = 1024 * 1024

var (
	// ErrImageTooLarge indicates an inline image exceeded the configured limit.
	ErrImageTooLarge = errors.New("image exceeds maximum allowed size")
	// ErrImageTypeNotAllowed indicates the decoded payload is not an image.
	ErrImageTypeNotAllowed = errors.New("image type not allowed")
)

// imageChecker validates inline data URI images before they reach the store.
type imageChecker struct {
	maxBytes int
}

func (c imageChecker) check(images []string) error {
	for idx, image := range images {
		if err := c.checkOne(image); err != nil {
			return fmt.Errorf("image %d: %w", idx+1, err)
		}
	}
	return nil
}

func (c imageChecker) checkOne(uri string) error {
	limit := c.maxBytes
	if limit <= 0 {
		limit = defaultMaxImageBytes
	}

	header, payload, found := strings.Cut(uri, ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		observability.ImageRejections().WithLabelValues("encoding").Inc()
		return fmt.Errorf("%w: expected a base64 data URI", ErrInvalidInput)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > limit+2 {
		observability.ImageRejections().WithLabelValues("size").Inc()
		return ErrImageTooLarge
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		observability.ImageRejections().WithLabelValues("encoding").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(raw) > limit {
		observability.ImageRejections().WithLabelValues("size").Inc()
		return ErrImageTooLarge
	}

	detected := mimetype.Detect(raw)
	if !strings.HasPrefix(detected.String(), "image/") {
		observability.ImageRejections().WithLabelValues("type").Inc()
		return fmt.Errorf("%w: detected %s", ErrImageTypeNotAllowed, detected.String())
	}

	declared := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if declared != "" && !detected.Is(declared) {
		observability.ImageRejections().WithLabelValues("type").Inc()
		return fmt.Errorf("%w: declared %s but detected %s", ErrImageTypeNotAllowed, declared, detected.String())
	}
	return nil
}
