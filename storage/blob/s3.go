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

	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3 struct {
	*minio.Client
	bucket string
	prefix string
}

func NewS3(cfg config.S3Config, bucket, prefix string) (*S3, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &S3{
		Client: minioClient,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Prepare creates the bucket if it does not exist.
func (s *S3) Prepare(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Annotatef(err, "check bucket %s", s.bucket)
	}
	if exists {
		return nil
	}
	if err = s.Client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Annotatef(err, "create bucket %s", s.bucket)
	}
	return nil
}

func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	object, err := s.Client.GetObject(ctx, s.bucket, objectKey(s.prefix, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.convertError(err, name)
	}
	// GetObject is lazy, stat it to report a missing object now.
	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		return nil, s.convertError(err, name)
	}
	return object, nil
}

func (s *S3) Create(ctx context.Context, name string) (Writer, error) {
	key := objectKey(s.prefix, name)
	return newUploadWriter(s.URI(name), func(r io.Reader) error {
		_, err := s.Client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{})
		return err
	}), nil
}

func (s *S3) List(ctx context.Context) ([]string, error) {
	var names []string
	for object := range s.Client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix(s.prefix),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, errors.Trace(object.Err)
		}
		names = append(names, trimKey(s.prefix, object.Key))
	}
	return names, nil
}

func (s *S3) Remove(ctx context.Context, name string) error {
	return errors.Trace(s.Client.RemoveObject(ctx, s.bucket, objectKey(s.prefix, name), minio.RemoveObjectOptions{}))
}

func (s *S3) URI(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey(s.prefix, name))
}

func (s *S3) convertError(err error, name string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.NotFoundf("blob %s", s.URI(name))
	}
	return errors.Trace(err)
}
