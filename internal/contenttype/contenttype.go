// Package contenttype maps file names to MIME types by extension only.
// No content sniffing is performed.
package contenttype

import (
	"path/filepath"
	"strings"
)

// Default is returned for unknown or missing extensions.
const Default = "application/octet-stream"

var byExtension = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".log":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// FromFileName returns the MIME type for the extension of name.
func FromFileName(name string) string {
	if ct, ok := byExtension[Extension(name)]; ok {
		return ct
	}
	return Default
}

// Extension returns the lower-cased extension of name including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
