/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: resolver.go
Description: Input source resolution for the Akaylee Driver. Turns path candidates into
a flat, ordered list of regular files: directories are expanded one level deep, hidden
entries and unexpanded wrapper placeholders are dropped, and anything that is neither a
file nor a directory is ignored.
*/

package input

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Placeholders left behind by a fuzzing wrapper that failed to substitute the input path
var placeholders = map[string]struct{}{
	"@@":         {},
	"___FILE___": {},
}

// IsPlaceholder reports whether arg is an unexpanded wrapper placeholder
func IsPlaceholder(arg string) bool {
	_, ok := placeholders[arg]
	return ok
}

// Resolver expands path candidates into input files
type Resolver struct {
	logger logrus.FieldLogger
}

// NewResolver creates a resolver; a nil logger discards diagnostics
func NewResolver(logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Resolver{logger: logger}
}

// Resolve returns the InputSourceList for paths, in argument order
func (r *Resolver) Resolve(paths []string) []string {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		if IsPlaceholder(p) {
			r.logger.WithField("arg", p).Debug("Ignoring unexpanded placeholder")
			continue
		}

		info, err := os.Stat(p)
		switch {
		case err != nil:
			r.logger.WithField("path", p).WithError(err).Debug("Dropping unusable path")
		case info.IsDir():
			files = append(files, r.listDir(p)...)
		case info.Mode().IsRegular():
			files = append(files, p)
		default:
			r.logger.WithField("path", p).Debug("Dropping non-regular path")
		}
	}
	return files
}

// listDir returns the regular, non-hidden entries of dir. No recursion.
func (r *Resolver) listDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.WithField("dir", dir).WithError(err).Warn("Failed to list directory")
		return nil
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		if isRegular(path) {
			files = append(files, path)
		}
	}
	return files
}

// isRegular follows symlinks
func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
