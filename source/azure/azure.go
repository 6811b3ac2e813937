// Package azure loads post documents from an Azure Blob Storage container.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/source"
)

// Config describes where posts live in blob storage.
type Config struct {
	AccountName string
	AccountKey  string // shared key; empty means DefaultAzureCredential
	Container   string
	Prefix      string
	ServiceURL  string // overrides https://<account>.blob.core.windows.net/, e.g. for Azurite
	Exts        []string
}

func (c Config) serviceURL() string {
	if c.ServiceURL != "" {
		return c.ServiceURL
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.AccountName)
}

// blobAPI is the part of the blob client the loader needs.
type blobAPI interface {
	list(ctx context.Context, container, prefix string) ([]string, error)
	download(ctx context.Context, container, name string) (io.ReadCloser, error)
}

// Loader fetches every matching blob under Config.Prefix.
type Loader struct {
	cfg    Config
	api    blobAPI
	logger *zap.Logger
}

// New builds a Loader with shared key or default Azure credentials.
func New(cfg Config, logger *zap.Logger) (*Loader, error) {
	if cfg.Container == "" {
		return nil, errors.New("azure: container name is required")
	}
	if cfg.AccountName == "" && cfg.ServiceURL == "" {
		return nil, errors.New("azure: account name or service URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var client *azblob.Client
	if cfg.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("azure: invalid shared key: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(cfg.serviceURL(), cred, nil)
		if err != nil {
			return nil, fmt.Errorf("azure: create client: %w", err)
		}
		logger.Info("azure blob source using shared key", zap.String("account", cfg.AccountName))
	} else {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("azure: default credential: %w", err)
		}
		client, err = azblob.NewClient(cfg.serviceURL(), cred, nil)
		if err != nil {
			return nil, fmt.Errorf("azure: create client: %w", err)
		}
		logger.Info("azure blob source using default credential", zap.String("account", cfg.AccountName))
	}
	return &Loader{cfg: cfg, api: sdkClient{client}, logger: logger}, nil
}

// Fetch lists and downloads the container's post documents. Identifiers are
// blob names with Config.Prefix removed.
func (l *Loader) Fetch(ctx context.Context) ([]content.Source, error) {
	names, err := l.api.list(ctx, l.cfg.Container, l.cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("azure: list %s/%s: %w", l.cfg.Container, l.cfg.Prefix, err)
	}
	var sources []content.Source
	for _, name := range names {
		if !source.MatchExt(name, l.cfg.Exts) {
			continue
		}
		body, err := l.api.download(ctx, l.cfg.Container, name)
		if err != nil {
			return nil, fmt.Errorf("azure: download %s: %w", name, err)
		}
		src, err := source.ReadAll(strings.TrimPrefix(name, l.cfg.Prefix), body)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	l.logger.Debug("fetched blobs", zap.String("container", l.cfg.Container), zap.Int("count", len(sources)))
	return sources, nil
}

type sdkClient struct {
	c *azblob.Client
}

func (s sdkClient) list(ctx context.Context, container, prefix string) ([]string, error) {
	var opts azblob.ListBlobsFlatOptions
	if prefix != "" {
		opts.Prefix = &prefix
	}
	var names []string
	pager := s.c.NewListBlobsFlatPager(container, &opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (s sdkClient) download(ctx context.Context, container, name string) (io.ReadCloser, error) {
	resp, err := s.c.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
