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
	"testing"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestGCS(t *testing.T) {
	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		Scheme:     "http",
		Port:       5050,
		PublicHost: "localhost:5050",
	})
	assert.NoError(t, err)
	defer server.Stop()
	t.Setenv(EmulatorEndpointEnv, "http://localhost:5050/storage/v1/")
	ctx := context.Background()

	// create client
	client, err := NewGCS(ctx, config.GCSConfig{}, "scoreprep-test", "artifacts")
	assert.NoError(t, err)
	assert.Equal(t, "gs://scoreprep-test/artifacts/preprocessor.pkl", client.URI("preprocessor.pkl"))

	// the bucket must exist
	assert.True(t, errors.Is(client.Prepare(ctx), errors.NotFound))
	server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{Name: "scoreprep-test"})
	assert.NoError(t, client.Prepare(ctx))

	// create file
	w, err := client.Create(ctx, "preprocessor.pkl")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	// list files
	names, err := client.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"preprocessor.pkl"}, names)

	// read file
	r, err := client.Open(ctx, "preprocessor.pkl")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoError(t, r.Close())

	// an aborted write keeps the object
	w, err = client.Create(ctx, "preprocessor.pkl")
	assert.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	assert.NoError(t, err)
	assert.NoError(t, w.Abort(errors.New("disk full")))
	r, err = client.Open(ctx, "preprocessor.pkl")
	assert.NoError(t, err)
	data, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoError(t, r.Close())

	// remove file
	assert.NoError(t, client.Remove(ctx, "preprocessor.pkl"))
	_, err = client.Open(ctx, "preprocessor.pkl")
	assert.True(t, errors.Is(err, errors.NotFound))

	// list files again
	names, err = client.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, names)
}
