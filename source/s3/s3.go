// Package s3 loads post documents from an S3 bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/source"
)

// Config describes where posts live in S3.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // custom endpoint, e.g. MinIO; enables path-style addressing
	AccessKey string // static credentials; empty means the default chain
	SecretKey string
	Exts      []string
}

type objectAPI interface {
	list(ctx context.Context, bucket, prefix string) ([]string, error)
	get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Loader fetches every matching object under Config.Prefix.
type Loader struct {
	cfg    Config
	api    objectAPI
	logger *zap.Logger
}

// New builds a Loader from the default AWS configuration chain, overridden
// by any region, endpoint or static credentials in cfg.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Loader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("s3 source configured", zap.String("bucket", cfg.Bucket), zap.String("prefix", cfg.Prefix))
	return &Loader{cfg: cfg, api: sdkClient{client}, logger: logger}, nil
}

// Fetch lists and downloads the bucket's post documents. Identifiers are
// object keys with Config.Prefix removed.
func (l *Loader) Fetch(ctx context.Context) ([]content.Source, error) {
	keys, err := l.api.list(ctx, l.cfg.Bucket, l.cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("s3: list %s/%s: %w", l.cfg.Bucket, l.cfg.Prefix, err)
	}
	var sources []content.Source
	for _, key := range keys {
		if strings.HasSuffix(key, "/") || !source.MatchExt(key, l.cfg.Exts) {
			continue
		}
		body, err := l.api.get(ctx, l.cfg.Bucket, key)
		if err != nil {
			return nil, fmt.Errorf("s3: get %s: %w", key, err)
		}
		src, err := source.ReadAll(strings.TrimPrefix(key, l.cfg.Prefix), body)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	l.logger.Debug("fetched objects", zap.String("bucket", l.cfg.Bucket), zap.Int("count", len(sources)))
	return sources, nil
}

type sdkClient struct {
	c *s3.Client
}

func (s sdkClient) list(ctx context.Context, bucket, prefix string) ([]string, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	var keys []string
	pager := s3.NewListObjectsV2Paginator(s.c, in)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s sdkClient) get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
