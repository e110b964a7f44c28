package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Lister lists the bitmap files a user can pick from.
type Lister interface {
	List() ([]string, error)
}

type dirLister struct {
	dir string
}

// List returns the *.bmp files in the directory, sorted by name.
func (l dirLister) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".bmp") {
			continue
		}
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
