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
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// EmulatorEndpointEnv points the GCS client to an emulator.
const EmulatorEndpointEnv = "GCS_EMULATOR_ENDPOINT"

type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, cfg config.GCSConfig, bucket, prefix string) (*GCS, error) {
	var opts []option.ClientOption
	if endpoint := os.Getenv(EmulatorEndpointEnv); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &GCS{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Prepare checks that the bucket exists. Buckets belong to a project, so they
// are never created here.
func (g *GCS) Prepare(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) {
		return errors.NotFoundf("bucket %s", g.bucket)
	}
	return errors.Trace(err)
}

func (g *GCS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(g.bucket).Object(objectKey(g.prefix, name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errors.NotFoundf("blob %s", g.URI(name))
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return r, nil
}

// Create returns the object writer. Its Close finishes the upload.
func (g *GCS) Create(ctx context.Context, name string) (Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	return &gcsWriter{
		Writer: g.client.Bucket(g.bucket).Object(objectKey(g.prefix, name)).NewWriter(ctx),
		cancel: cancel,
	}, nil
}

type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return errors.Trace(w.Writer.Close())
}

// Abort cancels the upload context, which discards the object.
func (w *gcsWriter) Abort(_ error) error {
	w.cancel()
	_ = w.Writer.Close()
	return nil
}

func (g *GCS) List(ctx context.Context) ([]string, error) {
	var names []string
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{
		Prefix: listPrefix(g.prefix),
	})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		names = append(names, trimKey(g.prefix, attrs.Name))
	}
	return names, nil
}

func (g *GCS) Remove(ctx context.Context, name string) error {
	err := g.client.Bucket(g.bucket).Object(objectKey(g.prefix, name)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return errors.NotFoundf("blob %s", g.URI(name))
	}
	return errors.Trace(err)
}

func (g *GCS) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, objectKey(g.prefix, name))
}
