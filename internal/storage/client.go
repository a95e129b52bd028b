// Package storage is the object-store edge of the pipeline: one S3 client
// for listing rendered assets, uploading thumbnails, and minting access
// URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"northpier.systems/reelsync/internal/config"
	"northpier.systems/reelsync/internal/pipeline"
)

// Client wraps the S3 API for a single bucket.
type Client struct {
	bucket     string
	region     string
	endpoint   string
	pathStyle  bool
	publicURLs bool
	signTTL    time.Duration

	s3       *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
}

// New builds the S3 client from configuration. A custom endpoint redirects
// the client to that host; loopback endpoints additionally force path-style
// addressing, since bucket subdomains cannot resolve against localhost.
func New(ctx context.Context, conf config.Config) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(conf.S3Region),
	}
	if conf.S3AccessKeyID != "" && conf.S3SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.S3AccessKeyID, conf.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "load aws config", err)
	}

	endpoint := strings.TrimRight(conf.S3Endpoint, "/")
	pathStyle := isLoopbackEndpoint(endpoint)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})

	return &Client{
		bucket:     conf.S3Bucket,
		region:     conf.S3Region,
		endpoint:   endpoint,
		pathStyle:  pathStyle,
		publicURLs: conf.PublicAssetURLs,
		signTTL:    conf.SignedURLTTL(),
		s3:         client,
		uploader:   manager.NewUploader(client),
		presign:    s3.NewPresignClient(client),
	}, nil
}

// Bucket returns the bucket this client operates on.
func (c *Client) Bucket() string {
	return c.bucket
}

// ListKeys returns every object key under prefix, in listing order.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Upload stores body under key with the given content type.
func (c *Client) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// isLoopbackEndpoint reports whether endpoint points at the local machine,
// which is how development stacks like MinIO are addressed.
func isLoopbackEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}

	raw := endpoint
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}

	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
