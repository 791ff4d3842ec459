// Package source reads conversion inputs: CSV exports and ZIP archives of
// HTML pages with their images. Readers turn raw bytes into Records and
// ImageAssets and report bad input with the core sentinel errors.
package source

import (
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gaurav-prasanna/mdzip/core"
)

// Kind is the type of a conversion input.
type Kind string

const (
	KindCSV     Kind = "csv"
	KindArchive Kind = "archive"
)

// imageExtensions are the sibling files copied into the images folder.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true,
}

// htmlExtensions are the archive members converted to Markdown.
var htmlExtensions = map[string]bool{
	".html": true, ".htm": true,
}

// IsImageAsset reports whether name is an image that belongs in the
// images folder.
func IsImageAsset(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// IsHTMLDocument reports whether name is an HTML page.
func IsHTMLDocument(name string) bool {
	return htmlExtensions[strings.ToLower(path.Ext(name))]
}

// DetectKind decides how to read an input from its name, falling back to
// content sniffing when the extension says nothing.
func DetectKind(name string, data []byte) (Kind, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", core.ErrEmptyInput, displayName(name))
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return KindCSV, nil
	case ".zip":
		return KindArchive, nil
	}

	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		switch {
		case mt.Is("application/zip"):
			return KindArchive, nil
		case mt.Is("text/csv"), mt.Is("text/plain"):
			return KindCSV, nil
		}
	}
	return "", fmt.Errorf("%w: %s is neither CSV nor ZIP", core.ErrUnsupportedInput, displayName(name))
}

func displayName(name string) string {
	if name == "" {
		return "input"
	}
	return name
}
