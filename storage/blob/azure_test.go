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
	stderrors "errors"
	"io"
	"os"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestAzureBlobEmulator(t *testing.T) {
	connectionString := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	if connectionString == "" {
		t.Skip("AZURE_STORAGE_CONNECTION_STRING is not set, skipping Azure Blob emulator test")
	}
	ctx := context.Background()

	client, err := NewAzureBlob(config.AzureBlobConfig{ConnectionString: connectionString}, "scoreprep-test", "artifacts")
	assert.NoError(t, err)
	assert.NoError(t, client.Prepare(ctx))
	assert.NoError(t, client.Prepare(ctx))

	w, err := client.Create(ctx, "test.txt")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	r, err := client.Open(ctx, "test.txt")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoError(t, r.Close())

	names, err := client.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, names, "test.txt")

	assert.NoError(t, client.Remove(ctx, "test.txt"))
	names, err = client.List(ctx)
	assert.NoError(t, err)
	assert.NotContains(t, names, "test.txt")
	_, err = client.Open(ctx, "test.txt")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestAzureBlobMissingContainer(t *testing.T) {
	connectionString := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	if connectionString == "" {
		t.Skip("AZURE_STORAGE_CONNECTION_STRING is not set, skipping Azure Blob emulator test")
	}
	client, err := NewAzureBlob(config.AzureBlobConfig{ConnectionString: connectionString}, "scoreprep-missing", "")
	assert.NoError(t, err)
	_, err = client.List(context.Background())
	var respErr *azcore.ResponseError
	assert.True(t, stderrors.As(err, &respErr))
}
