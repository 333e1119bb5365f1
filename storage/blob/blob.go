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
	"path"
	"strings"

	"github.com/gorse-io/scoreprep/common/log"
	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Store is a flat namespace of named blobs.
type Store interface {
	// Prepare creates the directory, bucket or container holding the blobs.
	Prepare(ctx context.Context) error
	// Open a blob for reading. A missing blob is errors.NotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create a blob for writing. The blob is complete once Close returns nil.
	Create(ctx context.Context, name string) (Writer, error)
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, name string) error
	// URI locates a blob for humans.
	URI(name string) string
}

// Writer is a blob being written. Close commits it. Abort discards it and keeps
// the previous blob of the same name.
type Writer interface {
	io.WriteCloser
	Abort(cause error) error
}

var errAborted = errors.New("upload aborted")

// NewStore creates the artifact store selected by the configuration.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	artifact := cfg.Artifact
	switch artifact.Store {
	case config.StorePOSIX:
		return NewPOSIX(artifact.Dir), nil
	case config.StoreS3:
		log.Logger().Info("open s3 artifact store",
			zap.String("endpoint", log.RedactURL(cfg.S3.Endpoint)),
			zap.String("bucket", artifact.Bucket))
		return NewS3(cfg.S3, artifact.Bucket, artifact.Prefix)
	case config.StoreGCS:
		log.Logger().Info("open gcs artifact store", zap.String("bucket", artifact.Bucket))
		return NewGCS(ctx, cfg.GCS, artifact.Bucket, artifact.Prefix)
	case config.StoreAzure:
		log.Logger().Info("open azure artifact store",
			zap.String("endpoint", log.RedactURL(cfg.Azure.Endpoint)),
			zap.String("container", artifact.Bucket))
		return NewAzureBlob(cfg.Azure, artifact.Bucket, artifact.Prefix)
	}
	return nil, errors.NotSupportedf("artifact store %s", artifact.Store)
}

// objectKey joins a prefix and a name with forward slashes.
func objectKey(prefix, name string) string {
	return strings.TrimPrefix(path.Join(prefix, name), "/")
}

// listPrefix selects the keys under a prefix directory.
func listPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// trimKey strips the prefix from an object key listed under it.
func trimKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix)
	}
	return strings.TrimPrefix(key, "/")
}

// uploadWriter streams written bytes to an upload running in another goroutine.
// Close waits for the upload and returns its error.
type uploadWriter struct {
	*io.PipeWriter
	done chan struct{}
	err  error
}

func newUploadWriter(uri string, upload func(r io.Reader) error) *uploadWriter {
	pr, pw := io.Pipe()
	w := &uploadWriter{PipeWriter: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = upload(pr)
		if w.err != nil {
			log.Logger().Error("failed to upload blob", zap.String("uri", uri), zap.Error(w.err))
		}
		// unblock pending writes if the upload stopped reading
		_ = pr.CloseWithError(w.err)
	}()
	return w
}

func (w *uploadWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	<-w.done
	return errors.Trace(w.err)
}

// Abort fails the reader side so the upload never completes.
func (w *uploadWriter) Abort(cause error) error {
	if cause == nil {
		cause = errAborted
	}
	_ = w.PipeWriter.CloseWithError(cause)
	<-w.done
	return nil
}
