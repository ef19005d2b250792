package resolve

import (
	"os"

	"github.com/karrick/godirwalk"
)

// walk mirrors the teacher's fs.Walk (src/fs/walk.go): a thin wrapper around
// godirwalk that exposes a filepath.Walk-shaped callback, used here to
// discover namespace-package candidates under a search-path root without
// materializing directory entries from os.ReadDir recursively.
func walk(rootPath string, callback func(name string, isDir bool) error) error {
	if info, err := os.Lstat(rootPath); err != nil {
		return err
	} else if !info.IsDir() {
		return callback(rootPath, false)
	}
	return godirwalk.Walk(rootPath, &godirwalk.Options{
		Callback: func(name string, info *godirwalk.Dirent) error {
			return callback(name, info.IsDir())
		},
		Unsorted: true,
	})
}
