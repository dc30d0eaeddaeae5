// Package language normalizes subtitle language tags.
//
// Stream tags arrive as ISO 639-1, ISO 639-2 (terminological or
// bibliographic), or full English words. Sidecar subtitle names always use
// the two-letter form, or "un" when the language cannot be determined.
package language
