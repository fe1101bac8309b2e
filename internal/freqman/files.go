package freqman

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the file extension of database files.
const Ext = ".txt"

// ListDatabases returns the names (without extension) of the database files
// in dir, sorted. It returns ErrNoFiles when there are none.
func ListDatabases(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, &AccessError{Op: "list", Path: dir, Err: err}
	}

	var names []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := filepath.Ext(f.Name())
		if !strings.EqualFold(ext, Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(f.Name(), ext))
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}

	sort.Strings(names)
	return names, nil
}

// Resolve returns the path of the database called name in dir. An existing
// file is matched regardless of extension case; otherwise name + Ext is used.
func Resolve(dir, name string) string {
	files, err := os.ReadDir(dir)
	if err == nil {
		for _, f := range files {
			ext := filepath.Ext(f.Name())
			if !f.IsDir() && strings.EqualFold(ext, Ext) && strings.TrimSuffix(f.Name(), ext) == name {
				return filepath.Join(dir, f.Name())
			}
		}
	}
	return filepath.Join(dir, name+Ext)
}
