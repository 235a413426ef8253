package media_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/config"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

// S3Adapter writes to any S3-compatible service. Buckets map one-to-one.
type S3Adapter struct {
	client        *s3.Client
	publicBaseURL string
	logger        logger.Logger
}

func NewS3Adapter(ctx context.Context, cfg config.Config, log logger.Logger) (*S3Adapter, error) {
	c := cfg.Storage.S3
	if c.PublicBaseURL == "" {
		return nil, fmt.Errorf("s3 public_base_url has not config")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	})

	log.Info("Initialized S3 object storage", zap.String("endpoint", c.Endpoint), zap.String("region", c.Region))
	return &S3Adapter{
		client:        client,
		publicBaseURL: strings.TrimRight(c.PublicBaseURL, "/"),
		logger:        log,
	}, nil
}

func (a *S3Adapter) Upload(ctx context.Context, bucket, path string, body io.Reader, opts service.UploadOptions) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
		Body:   body,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if !opts.AllowOverwrite {
		in.IfNoneMatch = aws.String("*")
	}

	_, err := a.client.PutObject(ctx, in)
	if err != nil {
		var respErr interface{ HTTPStatusCode() int }
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusPreconditionFailed {
			return &apperror.GatewayError{Op: "s3.put_object", Message: "The resource already exists"}
		}
		return fmt.Errorf("failed to upload s3 object: %w", err)
	}

	a.logger.Debug("Uploaded object to S3", zap.String("bucket", bucket), zap.String("key", path))
	return nil
}

func (a *S3Adapter) PublicURL(_ context.Context, bucket, path string) (string, error) {
	return a.publicBaseURL + "/" + bucket + "/" + path, nil
}

// NewObjectStorage picks the storage driver named by storage.driver.
func NewObjectStorage(ctx context.Context, cfg config.Config, log logger.Logger) (service.ObjectStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Adapter(ctx, cfg, log)
	case "cloudinary", "":
		return NewCloudinaryAdapter(cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
