package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandUploads turns the upload arguments into a de-duplicated list of
// regular files. Arguments with glob characters are matched with ** support;
// a pattern that matches no file is an error. Plain paths must name a
// regular file.
func expandUploads(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		if !containsGlob(arg) {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, err
			}
			if !info.Mode().IsRegular() {
				return nil, fmt.Errorf("%s is not a regular file", arg)
			}
			add(arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matches no files", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}

func containsGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
