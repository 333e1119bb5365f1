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
	"os"
	"testing"

	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

var (
	endpoint        = os.Getenv("S3_ENDPOINT")
	accessKeyID     = os.Getenv("S3_ACCESS_KEY_ID")
	secretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
)

func TestS3(t *testing.T) {
	if endpoint == "" || accessKeyID == "" || secretAccessKey == "" {
		t.Skip("S3 environment variables are not set, skipping S3 tests")
	}
	ctx := context.Background()

	// create client
	client, err := NewS3(config.S3Config{
		Endpoint:        endpoint,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	}, "scoreprep-test", "artifacts")
	assert.NoError(t, err)

	// create bucket if not exists, twice is fine
	assert.NoError(t, client.Prepare(ctx))
	assert.NoError(t, client.Prepare(ctx))

	// write a file
	w, err := client.Create(ctx, "test")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	// read the file
	r, err := client.Open(ctx, "test")
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.NoError(t, r.Close())

	names, err := client.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, names, "test")

	// remove the file
	assert.NoError(t, client.Remove(ctx, "test"))
	_, err = client.Open(ctx, "test")
	assert.True(t, errors.Is(err, errors.NotFound))
}
