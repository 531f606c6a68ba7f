package manifest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
)

// ObjectGetter is the part of *s3.Client used to fetch manifests.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	s3     ObjectGetter
	format Format
	logger *slog.Logger
}

// WithS3 sets the client used for s3:// sources.
func WithS3(client ObjectGetter) LoadOption {
	return func(o *loadOptions) { o.s3 = client }
}

// WithFormat overrides extension based format detection.
func WithFormat(f Format) LoadOption {
	return func(o *loadOptions) { o.format = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = l }
}

// LoadFile reads a manifest from disk.
func LoadFile(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rkerrors.New("E023").WithFile(path).Wrap(err)
	}
	return Decode(data, format)
}

// Load reads a manifest from a file path or an s3://bucket/key URL.
func Load(ctx context.Context, source string, opts ...LoadOption) (*Manifest, error) {
	o := loadOptions{logger: slog.Default().With("component", "manifest")}
	for _, opt := range opts {
		opt(&o)
	}

	if !strings.HasPrefix(source, "s3://") {
		if o.format == "" {
			return LoadFile(source)
		}
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, rkerrors.New("E023").WithFile(source).Wrap(err)
		}
		return Decode(data, o.format)
	}

	bucket, key, err := ParseS3URL(source)
	if err != nil {
		return nil, err
	}
	if o.s3 == nil {
		return nil, rkerrors.New("E023").
			WithFile(source).
			WithDetail("no S3 client configured").
			WithSuggestion("Pass manifest.WithS3(s3.NewFromConfig(cfg))")
	}
	format := o.format
	if format == "" {
		if format, err = FormatFromPath(key); err != nil {
			return nil, err
		}
	}

	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, rkerrors.New("E023").WithFile(source).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, rkerrors.New("E023").WithFile(source).Wrap(err)
	}
	o.logger.Debug("manifest fetched", "bucket", bucket, "key", key, "bytes", len(data))
	return Decode(data, format)
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(source string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(source, "s3://")
	if !ok {
		return "", "", rkerrors.New("E023").WithFile(source).WithDetail("not an s3:// URL")
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", rkerrors.New("E023").WithFile(source).WithDetail("expected s3://bucket/key")
	}
	return bucket, key, nil
}
