package inventory

// Walk visits entry and its descendants in tree order, parents before children.
// Returning a non-nil error from fn stops the walk.
func Walk(entry Entry, fn func(Entry) error) error {
	if err := fn(entry); err != nil {
		return err
	}
	dir, ok := entry.(*Dir)
	if !ok {
		return nil
	}
	for _, child := range dir.Children {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Files returns every file below dir in tree order.
func Files(dir *Dir) []*File {
	var files []*File
	_ = Walk(dir, func(e Entry) error {
		if f, ok := e.(*File); ok {
			files = append(files, f)
		}
		return nil
	})
	return files
}

// CountFiles returns the number of file leaves below dir.
func CountFiles(dir *Dir) int {
	return len(Files(dir))
}
