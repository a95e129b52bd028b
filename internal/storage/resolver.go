package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxSignTTL is the SigV4 presigning ceiling of seven days. Requested
// lifetimes beyond it are clamped, never rejected.
const MaxSignTTL = 7 * 24 * time.Hour

// clampTTL bounds a requested signed URL lifetime. Non-positive requests
// resolve to the ceiling.
func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > MaxSignTTL {
		return MaxSignTTL
	}
	return ttl
}

// SignGetURL mints a read-scoped URL for key. Playback and display URLs
// always come through here; an upload grant never doubles as a read grant.
func (c *Client) SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(clampTTL(ttl)))
	if err != nil {
		return "", fmt.Errorf("failed to sign get url for %s: %w", key, err)
	}
	return req.URL, nil
}

// SignPutURL mints a write-scoped upload URL for key, bound to contentType
// when one is given.
func (c *Client) SignPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := c.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(clampTTL(ttl)))
	if err != nil {
		return "", fmt.Errorf("failed to sign put url for %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL derives the deterministic unsigned URL for key. No request is
// made; the object is assumed readable by whoever holds the URL.
func (c *Client) PublicURL(key string) string {
	if c.endpoint != "" {
		if c.pathStyle {
			return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
		}
		if u, err := url.Parse(c.endpoint); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s.%s/%s", u.Scheme, c.bucket, u.Host, key)
		}
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}

// ResolveURL returns the access URL for key: the deterministic public URL
// when the deployment serves assets directly, otherwise a read-scoped
// signed URL bounded by the configured TTL.
func (c *Client) ResolveURL(ctx context.Context, key string) (string, error) {
	if c.publicURLs {
		return c.PublicURL(key), nil
	}
	return c.SignGetURL(ctx, key, c.signTTL)
}
