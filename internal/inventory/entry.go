package inventory

import (
	"strings"

	"mediamirror/internal/media/ffprobe"
)

// Entry is either a *Dir or a *File.
type Entry interface {
	EntryName() string
	RelativePath() string
	isEntry()
}

// Dir is a scanned directory and its ordered children.
type Dir struct {
	Name     string
	Path     string
	RelPath  string
	Children []Entry
}

// File is a scanned non-directory entry. Streams is attached by stream
// inspection and is nil until then.
type File struct {
	Name    string
	Path    string
	RelPath string
	Ext     string
	Streams *ffprobe.StreamInfo
}

func (d *Dir) EntryName() string    { return d.Name }
func (d *Dir) RelativePath() string { return d.RelPath }
func (*Dir) isEntry()               {}

func (f *File) EntryName() string    { return f.Name }
func (f *File) RelativePath() string { return f.RelPath }
func (*File) isEntry()               {}

// Extension returns the lowercase text after the last dot of name, or "".
func Extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
