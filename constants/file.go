package constants

import (
	"path/filepath"
	"strings"
)

// DocumentKind classifies an uploaded document.
type DocumentKind string

const (
	KindImage       DocumentKind = "IMAGE"
	KindPDF         DocumentKind = "PDF"
	KindUnsupported DocumentKind = "UNSUPPORTED"
)

// AllowedExtensions holds the accepted upload extensions (dot-less, lowercase).
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ClassifyUpload decides the document kind from the declared media type,
// falling back to the filename extension when the type is absent or generic.
func ClassifyUpload(filename, mediaType string) DocumentKind {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if strings.HasPrefix(mt, "image/") {
		if mt == "image/png" || mt == "image/jpeg" || mt == "image/jpg" {
			return KindImage
		}
		return KindUnsupported
	}
	if mt == "application/pdf" {
		return KindPDF
	}

	switch NormalizeExt(filepath.Ext(filename)) {
	case "png", "jpg", "jpeg":
		return KindImage
	case "pdf":
		return KindPDF
	}
	return KindUnsupported
}
