// Package outpath maps source-relative paths onto the output tree and keeps
// generated names unique within a run.
package outpath

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Resolver computes output paths below one output directory. Claims are
// tracked per Resolver so separate runs never share counters.
type Resolver struct {
	outputDir string

	mu      sync.Mutex
	counts  map[string]int
	claimed map[string]bool
}

// NewResolver returns a Resolver rooted at outputDir.
func NewResolver(outputDir string) *Resolver {
	return &Resolver{
		outputDir: outputDir,
		counts:    make(map[string]int),
		claimed:   make(map[string]bool),
	}
}

// OutputDir returns the root of the output tree.
func (r *Resolver) OutputDir() string {
	return r.outputDir
}

// Dir returns the output directory for a source-relative directory path.
func (r *Resolver) Dir(rel string) string {
	return filepath.Join(r.outputDir, filepath.FromSlash(rel))
}

// Resolve returns outputDir/rel with its extension replaced by newExt.
// An empty newExt keeps rel unchanged.
func (r *Resolver) Resolve(rel, newExt string) string {
	return r.ResolveWithCollisionSuffix(rel, newExt, 0)
}

// ResolveWithCollisionSuffix is Resolve with ".N" inserted before the
// extension when ordinal is positive.
func (r *Resolver) ResolveWithCollisionSuffix(rel, newExt string, ordinal int) string {
	stem, ext := rel, ""
	if newExt != "" {
		stem, _ = splitExt(rel)
		ext = newExt
	}
	return r.build(stem, ext, ordinal)
}

// Claim returns the next free name for rel with newExt. The first claim of a
// computed path gets it unchanged; the Nth repeat gets ".N" before the
// extension.
func (r *Resolver) Claim(rel, newExt string) string {
	stem, ext := rel, ""
	if newExt != "" {
		stem, _ = splitExt(rel)
		ext = newExt
	}
	return r.claim(stem, ext)
}

// ClaimSidecar claims "<stem>.<tag>.<ext>" next to the output for rel, as used
// for subtitle tracks extracted from a video (movie.en.vtt).
func (r *Resolver) ClaimSidecar(rel, tag, ext string) string {
	stem, _ := splitExt(rel)
	if tag != "" {
		stem += "." + tag
	}
	return r.claim(stem, ext)
}

// ClaimSidecarFor claims a sidecar next to an output this Resolver already
// handed out, sharing its stem including any collision suffix
// (a.1.webm gives a.1.en.vtt).
func (r *Resolver) ClaimSidecarFor(output, tag, ext string) string {
	rel, err := filepath.Rel(r.outputDir, output)
	if err != nil {
		rel = output
	}
	return r.ClaimSidecar(filepath.ToSlash(rel), tag, ext)
}

// Reserve marks path as taken so later claims route around it. Used for
// outputs whose names are fixed, such as verbatim copies.
func (r *Resolver) Reserve(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimed[path] = true
	r.counts[path]++
}

// Exists reports whether path is already present on disk.
func (r *Resolver) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (r *Resolver) claim(stem, ext string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.build(stem, ext, 0)
	n := r.counts[base]
	candidate := r.build(stem, ext, n)
	for r.claimed[candidate] {
		n++
		candidate = r.build(stem, ext, n)
	}
	r.counts[base] = n + 1
	r.claimed[candidate] = true
	return candidate
}

func (r *Resolver) build(stem, ext string, ordinal int) string {
	name := stem
	if ordinal > 0 {
		name += "." + strconv.Itoa(ordinal)
	}
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(r.outputDir, filepath.FromSlash(name))
}

// splitExt splits a slash-separated relative path into the part before the
// last dot of its final element and the extension after it.
func splitExt(rel string) (string, string) {
	slash := strings.LastIndexByte(rel, '/')
	dot := strings.LastIndexByte(rel, '.')
	if dot <= slash+1 {
		return rel, ""
	}
	return rel[:dot], rel[dot+1:]
}
