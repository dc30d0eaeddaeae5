// Command mediamirror mirrors a media tree into an output tree, encoding
// videos to WebM, converting subtitles to WebVTT, and copying everything
// else verbatim.
//
//	mediamirror <targetDir> [outputDir]
//
// Without an output directory the tree is scanned and validated but nothing
// is written.
package main
