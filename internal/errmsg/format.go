// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpCatalogSearch   Op = "search the catalog"
	OpCatalogFeatured Op = "load featured books"
	OpCatalogGet      Op = "look up book"

	// Feed operations
	OpFeedResolve Op = "load book sections"

	// Library operations
	OpLibraryLoad   Op = "load saved books"
	OpLibrarySave   Op = "save book"
	OpLibraryRemove Op = "remove book"

	// Download operations
	OpDownloadSection Op = "download section"
	OpDownloadPurge   Op = "delete downloads"

	// Playback operations
	OpPlaybackOpen  Op = "open book"
	OpPlaybackStart Op = "start playback"
	OpPlaybackPause Op = "pause playback"
	OpPlaybackSeek  Op = "seek"
	OpPlaybackTrack Op = "change section"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
