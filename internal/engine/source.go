package engine

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source yields the raw dataset bytes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads the dataset from the local filesystem.
type FileSource struct {
	Path string
}

func (f FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f FileSource) String() string {
	return f.Path
}

// S3Options holds static credentials for S3-compatible storage.
type S3Options struct {
	Endpoint string
	Region   string
	KeyID    string
	Secret   string
}

// S3Source reads the dataset object from S3-compatible storage.
type S3Source struct {
	client *s3.Client
	Bucket string
	Key    string
}

// NewS3Source builds a path-style S3 client for an s3://bucket/key URI.
func NewS3Source(uri string, opts S3Options) (*S3Source, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	s3opts := s3.Options{
		Region:       opts.Region,
		UsePathStyle: true,
	}
	if opts.KeyID != "" {
		s3opts.Credentials = credentials.NewStaticCredentialsProvider(opts.KeyID, opts.Secret, "")
	}
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		s3opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3Source{client: s3.New(s3opts), Bucket: bucket, Key: key}, nil
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", s, err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// OpenSource picks the source implementation from the location's scheme.
func OpenSource(location string, opts S3Options) (Source, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3Source(location, opts)
	}
	if location == "" {
		return nil, fmt.Errorf("data source is empty")
	}
	return FileSource{Path: location}, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("S3 path %q: scheme must be s3", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("S3 path %q: expected s3://bucket/key", uri)
	}
	return u.Host, key, nil
}
