package s3

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Archive browses the historical volume bucket, where each day's volumes
// for a site live under YYYY/MM/DD/SITE/ as complete Archive II files.
type Archive struct {
	store  interface {
		List(ctx context.Context, bucket, prefix, startAfter string) ([]Object, error)
		Download(ctx context.Context, bucket, key string) ([]byte, error)
	}
	bucket string
}

// NewArchive wraps a client for one archive bucket.
func NewArchive(client *Client, bucket string) *Archive {
	return &Archive{store: client, bucket: bucket}
}

// DayPrefix returns the listing prefix for one site and UTC day.
func DayPrefix(site string, day time.Time) string {
	return fmt.Sprintf("%s/%s/", day.UTC().Format("2006/01/02"), site)
}

// ListDay returns the site's volume object keys for one UTC day, in time
// order. Metadata sidecar objects (the _MDM suffix) are excluded.
func (a *Archive) ListDay(ctx context.Context, site string, day time.Time) ([]string, error) {
	objects, err := a.store.List(ctx, a.bucket, DayPrefix(site, day), "")
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "_MDM") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Download fetches one volume file by key.
func (a *Archive) Download(ctx context.Context, key string) ([]byte, error) {
	return a.store.Download(ctx, a.bucket, key)
}
