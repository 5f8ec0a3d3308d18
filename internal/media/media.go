// Package media processes uploaded post images and hands them to a Store.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"strings"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxUploadSizeMB = 5
	MaxDimension           = 1280
	WebPQuality            = 80
	// MaxPixels bounds the canvas a decoder may allocate for one upload.
	MaxPixels              = 40_000_000
)

// Store persists processed images and returns the reference saved on the post.
type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Service validates, normalizes and stores post images.
type Service struct {
	store              Store
	maxUploadSizeBytes int64
}

// NewService returns a Service writing to store.
func NewService(store Store, maxUploadSizeMB int) *Service {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	return &Service{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// NewServiceFromConfig stores in Cloudinary when CLOUDINARY_URL is set and
// under MEDIA_DIR otherwise.
func NewServiceFromConfig(cfg *config.Config) (*Service, error) {
	var store Store
	if cfg.CloudinaryURL != "" {
		cld, err := NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			return nil, err
		}
		store = cld
	} else {
		store = NewLocalStore(cfg.MediaDir, LocalURLPrefix)
	}
	return NewService(store, cfg.MediaMaxUploadMB), nil
}

// SaveImage decodes content, fits it into MaxDimension, re-encodes it as WebP
// and stores it. The same image uploaded by the same user maps to the same name.
func (s *Service) SaveImage(ctx context.Context, userID uint, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewFieldValidationError(map[string]string{"image": "The submitted file is empty."})
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return "", models.NewFieldValidationError(map[string]string{
			"image": fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)),
		})
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return "", models.NewFieldValidationError(map[string]string{"image": "Upload a valid image."})
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil || header.Width <= 0 || header.Height <= 0 ||
		int64(header.Width)*int64(header.Height) > MaxPixels {
		return "", models.NewFieldValidationError(map[string]string{"image": "Upload a valid image."})
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewFieldValidationError(map[string]string{"image": "Upload a valid image."})
	}

	encoded, err := encodeWebP(resizeToFit(decoded, MaxDimension, MaxDimension), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	name := "posts/" + imageHash(userID, content) + ".webp"
	ref, err := s.store.Save(ctx, name, encoded)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return ref, nil
}

// Remove deletes a stored image. Empty refs are ignored.
func (s *Service) Remove(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return s.store.Delete(ctx, ref)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func imageHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
