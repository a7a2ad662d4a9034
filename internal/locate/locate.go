// Package locate finds previously built native-module directories inside a
// build output tree.
package locate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/extform/extform/internal/apperr"
)

// Candidates returns the compiled-module filenames to look for, one per
// extension suffix.
func Candidates(module string, suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, module+s)
	}
	return out
}

// Find walks buildDir for the first directory (lexical order) whose name
// ends with dirSuffix and which directly contains one of filenames, and
// returns its absolute path. The suffix pins the interpreter ABI the
// artifact was built for, e.g. "-3.11".
//
// A miss is a NotFound error: a missing artifact means the build step has
// not produced anything this interpreter can load.
func Find(buildDir, dirSuffix string, filenames []string) (string, error) {
	const op = "locate.Find"
	if len(filenames) == 0 {
		return "", apperr.New(op, apperr.InvalidInput, "no candidate filenames")
	}

	var found string
	err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees cannot hold an artifact we can load.
			return nil
		}
		if !d.IsDir() || !strings.HasSuffix(d.Name(), dirSuffix) {
			return nil
		}
		for _, name := range filenames {
			if _, statErr := os.Stat(filepath.Join(path, name)); statErr == nil {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", apperr.Wrap(op, apperr.Internal, err, "walk %s", buildDir)
	}
	if found == "" {
		return "", apperr.New(op, apperr.NotFound,
			"no directory ending %q with %s under %s", dirSuffix, strings.Join(filenames, " or "), buildDir)
	}
	abs, err := filepath.Abs(found)
	if err != nil {
		return "", apperr.Wrap(op, apperr.Internal, err, "resolve %s", found)
	}
	return abs, nil
}
