package main

import (
	"context"
	"fmt"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/internal/logger"
	"github.com/eringen/pubcontent/source"
	"github.com/eringen/pubcontent/source/azure"
	"github.com/eringen/pubcontent/source/s3"
)

// buildLoader returns the source.Loader selected by cfg.Source.
func buildLoader(ctx context.Context, cfg pubcontent.SiteConfig) (source.Loader, error) {
	log := logger.FromContext(ctx)
	sc := cfg.Source
	switch sc.Kind {
	case pubcontent.SourceDir:
		return source.Dir(sc.Dir, sc.Exts...), nil
	case pubcontent.SourceAzure:
		l, err := azure.New(azure.Config{
			AccountName: sc.AzureAccount,
			AccountKey:  sc.AzureKey,
			Container:   sc.AzureContainer,
			Prefix:      sc.Prefix,
			ServiceURL:  sc.AzureServiceURL,
			Exts:        sc.Exts,
		}, log)
		if err != nil {
			return nil, err
		}
		return l, nil
	case pubcontent.SourceS3:
		l, err := s3.New(ctx, s3.Config{
			Bucket:    sc.S3Bucket,
			Prefix:    sc.Prefix,
			Region:    sc.S3Region,
			Endpoint:  sc.S3Endpoint,
			AccessKey: sc.S3AccessKey,
			SecretKey: sc.S3SecretKey,
			Exts:      sc.Exts,
		}, log)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
}

// loadReport fetches every source document and parses it.
func loadReport(ctx context.Context, cfg pubcontent.SiteConfig) (*content.Report, error) {
	loader, err := buildLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sources, err := loader.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	var opts []content.LoadOption
	if cfg.ExcludeInvalid {
		opts = append(opts, content.ExcludeInvalid())
	}
	return content.Load(sources, opts...), nil
}
