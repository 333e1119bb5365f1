// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

const tempPrefix = ".upload-"

// POSIX stores blobs as files in a local directory.
type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

func (p *POSIX) Prepare(_ context.Context) error {
	if err := os.MkdirAll(p.dir, os.ModePerm); err != nil {
		return errors.Annotatef(err, "create directory %s", p.dir)
	}
	return nil
}

func (p *POSIX) Open(_ context.Context, name string) (io.ReadCloser, error) {
	file, err := os.Open(p.URI(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.NotFoundf("blob %s", p.URI(name))
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create writes into a temporary file of the same directory. Close renames it
// to the target name, replacing any existing blob.
func (p *POSIX) Create(_ context.Context, name string) (Writer, error) {
	file, err := os.CreateTemp(p.dir, tempPrefix+"*")
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &posixWriter{File: file, target: p.URI(name)}, nil
}

type posixWriter struct {
	*os.File
	target string
}

func (w *posixWriter) Close() error {
	if err := w.File.Close(); err != nil {
		_ = os.Remove(w.Name())
		return errors.Trace(err)
	}
	if err := os.Chmod(w.Name(), 0o644); err != nil {
		_ = os.Remove(w.Name())
		return errors.Trace(err)
	}
	if err := os.Rename(w.Name(), w.target); err != nil {
		_ = os.Remove(w.Name())
		return errors.Trace(err)
	}
	return nil
}

// Abort removes the temporary file.
func (w *posixWriter) Abort(_ error) error {
	_ = w.File.Close()
	if err := os.Remove(w.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Trace(err)
	}
	return nil
}

func (p *POSIX) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (p *POSIX) Remove(_ context.Context, name string) error {
	err := os.Remove(p.URI(name))
	if errors.Is(err, fs.ErrNotExist) {
		return errors.NotFoundf("blob %s", p.URI(name))
	}
	return errors.Trace(err)
}

func (p *POSIX) URI(name string) string {
	return filepath.Join(p.dir, name)
}
