package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	// Decoders register themselves with image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageDimension bounds width and height of uploaded images.
const MaxImageDimension = 8192

var (
	ErrNotImage = errors.New("media: file is not a supported image")
	ErrNotVideo = errors.New("media: file is not a supported video")
)

// ImageInfo is what InspectImage learns from an image header.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// InspectImage decodes only the image header (png, jpeg, gif, webp, bmp,
// tiff) and rewinds r so the full file can be stored afterwards.
func InspectImage(r io.ReadSeeker) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return ImageInfo{}, fmt.Errorf("media: rewinding upload: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return ImageInfo{}, fmt.Errorf("%w: %dx%d is outside 1..%d", ErrNotImage, cfg.Width, cfg.Height, MaxImageDimension)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

var videoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".webm": true, ".mkv": true, ".avi": true,
}

// CheckVideo accepts a video by content type or, failing that, extension.
// Video containers are not decoded.
func CheckVideo(filename, contentType string) error {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return nil
	}
	if videoExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil
	}
	return fmt.Errorf("%w: %q (%s)", ErrNotVideo, filename, contentType)
}
