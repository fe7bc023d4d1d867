package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// InlineImage is raw image bytes with their MIME type.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

var dataURLPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)

// ParseDataURL decodes a data URL of a png, jpeg or webp image. A bare
// base64 payload is taken as jpeg.
func ParseDataURL(value string) (InlineImage, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return InlineImage{}, ErrImageRequired
	}
	mimeType := "image/jpeg"
	payload := value
	if match := dataURLPrefix.FindStringSubmatch(value); match != nil {
		if match[1] == "png" || match[1] == "webp" {
			mimeType = "image/" + match[1]
		}
		payload = value[len(match[0]):]
	} else if strings.HasPrefix(value, "data:") {
		return InlineImage{}, fmt.Errorf("%w: unsupported data url type", ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return InlineImage{}, ErrImageRequired
	}
	return InlineImage{MIMEType: mimeType, Data: data}, nil
}

func (img InlineImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
}

// Extension returns the file extension for the image MIME type.
func (img InlineImage) Extension() string {
	switch img.MIMEType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

func IsDataURL(value string) bool {
	return strings.HasPrefix(value, "data:")
}

func IsRemoteURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// DefaultMaxImageBytes caps a downloaded image when no limit is configured.
const DefaultMaxImageBytes int64 = 10 << 20

var httpClient = &http.Client{Timeout: 60 * time.Second}

// ReadFileFromUrl downloads url, failing with ErrImageTooLarge once the
// body exceeds maxBytes.
func ReadFileFromUrl(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch file, status code: %d", resp.StatusCode)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, maxBytes)
	}
	return data, nil
}

// ReadRemoteImage downloads url and sniffs its MIME type.
func ReadRemoteImage(ctx context.Context, url string, maxBytes int64) (InlineImage, error) {
	data, err := ReadFileFromUrl(ctx, url, maxBytes)
	if err != nil {
		return InlineImage{}, err
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return InlineImage{}, fmt.Errorf("%w: %s is %s", ErrInvalidImage, url, mimeType)
	}
	return InlineImage{MIMEType: mimeType, Data: data}, nil
}
