package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var (
	// ErrNotADirectory is returned when the scan root is not a directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrCyclicDirectory is returned when a directory links back to one of its ancestors.
	ErrCyclicDirectory = errors.New("cyclic directory")
)

type dirIdentity struct {
	dev uint64
	ino uint64
}

func identify(path string) (dirIdentity, bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return dirIdentity{}, false, err
	}
	isDir := st.Mode&unix.S_IFMT == unix.S_IFDIR
	return dirIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, isDir, nil
}

// Scan builds the inventory tree rooted at root.
func Scan(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	id, isDir, err := identify(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotADirectory)
	}

	s := scanner{visiting: map[dirIdentity]string{}}
	return s.scanDir(abs, filepath.Base(abs), "", id)
}

type scanner struct {
	visiting map[dirIdentity]string
}

func (s *scanner) scanDir(path, name, parentRel string, id dirIdentity) (*Dir, error) {
	if first, ok := s.visiting[id]; ok {
		return nil, fmt.Errorf("%s links back to %s: %w", path, first, ErrCyclicDirectory)
	}
	s.visiting[id] = path
	defer delete(s.visiting, id)

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}

	dir := &Dir{Name: name, Path: path, RelPath: joinRel(parentRel, name)}

	type subdir struct {
		name string
		id   dirIdentity
	}
	var subdirs []subdir
	// os.ReadDir returns entries sorted by name.
	for _, entry := range entries {
		entryName := entry.Name()
		if entryName == "." || entryName == ".." {
			continue
		}
		full := filepath.Join(path, entryName)
		childID, childIsDir, err := identify(full)
		if err == nil && childIsDir {
			subdirs = append(subdirs, subdir{name: entryName, id: childID})
			continue
		}
		// Dangling symlinks and special files are listed as plain files.
		dir.Children = append(dir.Children, &File{
			Name:    entryName,
			Path:    full,
			RelPath: joinRel(dir.RelPath, entryName),
			Ext:     Extension(entryName),
		})
	}

	for _, sub := range subdirs {
		child, err := s.scanDir(filepath.Join(path, sub.name), sub.name, dir.RelPath, sub.id)
		if err != nil {
			return nil, err
		}
		dir.Children = append(dir.Children, child)
	}
	return dir, nil
}
