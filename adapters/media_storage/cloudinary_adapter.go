package media_storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/asset"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/config"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

const (
	resourceImage = "image"
	resourceVideo = "video"
	resourceRaw   = "raw"

	thumbnailTransformation = "c_fill,g_auto,w_400,h_400"
	videoPosterTransform    = "so_0,c_fill,g_auto,w_400,h_400"
)

// CloudinaryAdapter maps buckets onto top-level Cloudinary folders. Where an
// object lives is decided by its path alone (see locate), so an upload and
// the URLs built for it later always name the same asset.
type CloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	logger logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (*CloudinaryAdapter, error) {
	c := cfg.Storage.Cloudinary
	if c.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(c.CloudName, c.ApiKey, c.ApiSecret)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	log.Info("Connected to Cloudinary", zap.String("cloud_name", c.CloudName))
	return &CloudinaryAdapter{cld: cld, logger: log}, nil
}

func publicID(bucket, path string) string {
	return bucket + "/" + strings.TrimSuffix(path, filepath.Ext(path))
}

// locate returns the public id and resource type for an object path. Image
// and video ids drop the extension; raw ids keep it, as Cloudinary does.
func locate(bucket, path string) (id, rt string) {
	rt = resourceType(contentTypeOf(path))
	if rt == resourceRaw {
		return bucket + "/" + path, rt
	}
	return publicID(bucket, path), rt
}

func resourceType(contentType string) string {
	switch profile.ClassifyKind(contentType) {
	case profile.KindImage:
		return resourceImage
	case profile.KindVideo:
		return resourceVideo
	}
	// Cloudinary stores audio under the video resource type.
	if strings.HasPrefix(strings.ToLower(contentType), "audio/") {
		return resourceVideo
	}
	return resourceRaw
}

func (a *CloudinaryAdapter) Upload(ctx context.Context, bucket, path string, body io.Reader, opts service.UploadOptions) error {
	id, rt := locate(bucket, path)
	if declared := resourceType(opts.ContentType); opts.ContentType != "" && declared != rt {
		a.logger.Debug("Declared content type disagrees with extension, using extension",
			zap.String("path", path), zap.String("content_type", opts.ContentType), zap.String("resource_type", rt))
	}

	if !opts.AllowOverwrite {
		existing, err := a.cld.Admin.Asset(ctx, admin.AssetParams{PublicID: id, AssetType: api.AssetType(rt)})
		if err == nil && existing != nil && existing.Error.Message == "" && existing.PublicID != "" {
			return &apperror.GatewayError{Op: "cloudinary.upload", Message: "The resource already exists"}
		}
	}

	result, err := a.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:     id,
		Overwrite:    api.Bool(opts.AllowOverwrite),
		ResourceType: rt,
	})
	if err != nil {
		return fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return &apperror.GatewayError{Op: "cloudinary.upload", Message: result.Error.Message}
	}

	a.logger.Debug("Uploaded object to Cloudinary", zap.String("public_id", result.PublicID), zap.String("resource_type", rt))
	return nil
}

func (a *CloudinaryAdapter) asset(id, rt string) (*asset.Asset, error) {
	switch rt {
	case resourceImage:
		return a.cld.Image(id)
	case resourceVideo:
		return a.cld.Video(id)
	}
	return a.cld.File(id)
}

func (a *CloudinaryAdapter) PublicURL(ctx context.Context, bucket, path string) (string, error) {
	id, rt := locate(bucket, path)
	ast, err := a.asset(id, rt)
	if err != nil {
		return "", fmt.Errorf("failed to build cloudinary asset: %w", err)
	}
	return ast.String()
}

func (a *CloudinaryAdapter) Thumbnail(ctx context.Context, bucket, path string, kind profile.MediaKind) (string, error) {
	if kind == profile.KindAudio {
		return "", service.ErrNoThumbnail
	}
	id, rt := locate(bucket, path)
	switch rt {
	case resourceImage:
		img, err := a.cld.Image(id)
		if err != nil {
			return "", fmt.Errorf("failed to build cloudinary image: %w", err)
		}
		img.Transformation = thumbnailTransformation
		return img.String()
	case resourceVideo:
		// The .jpg suffix asks Cloudinary for a still frame.
		vid, err := a.cld.Video(id + ".jpg")
		if err != nil {
			return "", fmt.Errorf("failed to build cloudinary video: %w", err)
		}
		vid.Transformation = videoPosterTransform
		return vid.String()
	}
	return "", service.ErrNoThumbnail
}
