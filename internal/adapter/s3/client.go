// Package s3 is a minimal anonymous-access client for the NOAA Open Data
// buckets. The radar buckets are public and unsigned, so this speaks the
// two REST calls the feed needs (ListObjectsV2 and GetObject) without an
// AWS credential chain.
package s3

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
)

// Object is one listed bucket entry.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Client lists and downloads objects from public S3 buckets.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an anonymous S3 client. baseURL is empty in
// production; tests point it at a local server.
func NewClient(timeout time.Duration, baseURL string, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Client) bucketURL(bucket string) string {
	if c.baseURL != "" {
		return fmt.Sprintf("%s/%s", c.baseURL, bucket)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
}

// List returns the bucket's objects under prefix, lexicographically after
// startAfter, following continuation tokens until the listing is complete.
func (c *Client) List(ctx context.Context, bucket, prefix, startAfter string) ([]Object, error) {
	var objects []Object
	token := ""

	for {
		params := url.Values{
			"list-type": {"2"},
			"prefix":    {prefix},
		}
		if startAfter != "" {
			params.Set("start-after", startAfter)
		}
		if token != "" {
			params.Set("continuation-token", token)
		}

		page, err := c.listPage(ctx, bucket, params)
		if err != nil {
			c.metrics.SourceRequests.WithLabelValues("list", "error").Inc()
			return nil, err
		}
		c.metrics.SourceRequests.WithLabelValues("list", "success").Inc()

		for _, o := range page.Contents {
			objects = append(objects, Object{Key: o.Key, Size: o.Size, LastModified: o.LastModified})
		}
		if !page.IsTruncated || page.NextContinuationToken == "" {
			return objects, nil
		}
		token = page.NextContinuationToken
	}
}

func (c *Client) listPage(ctx context.Context, bucket string, params url.Values) (*listResult, error) {
	start := time.Now()
	fullURL := c.bucketURL(bucket) + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}
	defer resp.Body.Close()
	c.metrics.SourceAPIDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list %s: status %d: %s", bucket, resp.StatusCode, body)
	}

	var page listResult
	if err := xml.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &page, nil
}

// Download fetches one object's full body.
func (c *Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	start := time.Now()
	fullURL := c.bucketURL(bucket) + "/" + key

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.SourceRequests.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()
	c.metrics.SourceAPIDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.SourceRequests.WithLabelValues("get", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download %s/%s: status %d: %s", bucket, key, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.SourceRequests.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("download %s/%s: read body: %w", bucket, key, err)
	}

	c.metrics.SourceRequests.WithLabelValues("get", "success").Inc()
	c.logger.Debug("downloaded object", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}

// ListObjectsV2 response types.

type listResult struct {
	XMLName               xml.Name     `xml:"ListBucketResult"`
	IsTruncated           bool         `xml:"IsTruncated"`
	NextContinuationToken string       `xml:"NextContinuationToken"`
	Contents              []listObject `xml:"Contents"`
}

type listObject struct {
	Key          string    `xml:"Key"`
	Size         int64     `xml:"Size"`
	LastModified time.Time `xml:"LastModified"`
}
