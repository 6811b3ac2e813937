package pubcontent

import "embed"

// EmbeddedAssets holds the stylesheet served under /public/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
