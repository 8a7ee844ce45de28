package attach

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/config"
)

// Store persists uploaded blobs and hands out time-limited viewing URLs.
// All failures are non-fatal to the operations that trigger uploads.
type Store interface {
	// Upload persists the blob and returns an opaque reference.
	Upload(ctx context.Context, name string, blob io.Reader) (string, error)
	// SignedURL returns a browser-viewable URL for a reference, valid for ttl.
	SignedURL(ref string, ttl time.Duration) (string, error)
}

// CloudinaryStore implements Store on Cloudinary's upload API with
// authenticated delivery, so assets are reachable only through signed URLs.
type CloudinaryStore struct {
	client    *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	logger    *zap.Logger
}

// NewCloudinaryStore constructs the attachment store.
func NewCloudinaryStore(cfg config.AttachmentConfig, logger *zap.Logger) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryStore{
		client:    cld,
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    strings.Trim(cfg.Folder, "/"),
		logger:    logger.With(zap.String("component", "cloudinary")),
	}, nil
}

// Upload sends the blob to Cloudinary and returns its public id.
func (s *CloudinaryStore) Upload(ctx context.Context, name string, blob io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     buildPublicID(name),
		ResourceType: "auto",
		Type:         api.DeliveryType("authenticated"),
	}

	result, err := s.client.Upload.Upload(ctx, blob, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	s.logger.Info("attachment uploaded", zap.String("public_id", result.PublicID))
	return result.PublicID, nil
}

// SignedURL builds a delivery URL carrying Cloudinary's key-based access
// token, valid from now until now+ttl. No attachment flag is applied, so the
// browser renders the asset inline.
func (s *CloudinaryStore) SignedURL(ref string, ttl time.Duration) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty attachment reference")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	acl := fmt.Sprintf("/image/authenticated/%s", ref)
	start := time.Now().Unix()
	expiry := time.Now().Add(ttl).Unix()

	toSign := fmt.Sprintf("st=%d~exp=%d~acl=%s", start, expiry, acl)
	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(toSign))
	token := fmt.Sprintf("%s~hmac=%s", toSign, hex.EncodeToString(mac.Sum(nil)))

	return fmt.Sprintf("https://res.cloudinary.com/%s%s?__cld_token__=%s", s.cloudName, acl, token), nil
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}

	return fmt.Sprintf("%s-%d", base, time.Now().UnixNano())
}
