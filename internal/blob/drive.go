package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	parentCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charabot_drive_parent_cache_hits_total",
		Help: "Drive parent lookups served from cache.",
	})
	parentCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charabot_drive_parent_cache_misses_total",
		Help: "Drive parent lookups that went to the API.",
	})
)

// Drive implements Store on Google Drive.
type Drive struct {
	svc     *drive.Service
	http    *http.Client
	parents *expirable.LRU[string, []string]
}

// DriveOptions configures a Drive store.
type DriveOptions struct {
	// HTTPClient downloads attachments. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// ParentCacheSize and ParentCacheTTL bound the folder membership cache.
	ParentCacheSize int
	ParentCacheTTL  time.Duration
}

// NewDrive creates a Drive store. The client options carry credentials
// and are shared with the Sheets client.
func NewDrive(ctx context.Context, o DriveOptions, opts ...option.ClientOption) (*Drive, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.ParentCacheSize <= 0 {
		o.ParentCacheSize = 512
	}
	if o.ParentCacheTTL <= 0 {
		o.ParentCacheTTL = 10 * time.Minute
	}
	return &Drive{
		svc:     svc,
		http:    o.HTTPClient,
		parents: expirable.NewLRU[string, []string](o.ParentCacheSize, nil, o.ParentCacheTTL),
	}, nil
}

func (d *Drive) Upload(ctx context.Context, sourceURL, folderID, nameHint string) (string, error) {
	att, err := fetchAttachment(ctx, d.http, sourceURL)
	if err != nil {
		return "", err
	}

	meta := &drive.File{
		Name:    nameHint + "." + Extension(att.contentType),
		Parents: []string{folderID},
	}
	f, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(att.body), googleapi.ContentType(att.contentType)).
		Fields("id", "webViewLink").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create drive file %s: %w", meta.Name, err)
	}
	d.parents.Add(f.Id, meta.Parents)
	return f.WebViewLink, nil
}

func (d *Drive) Parents(ctx context.Context, fileID string) ([]string, error) {
	if p, ok := d.parents.Get(fileID); ok {
		parentCacheHits.Inc()
		return p, nil
	}
	parentCacheMisses.Inc()

	f, err := d.svc.Files.Get(fileID).Fields("parents").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get drive file %s: %w", fileID, err)
	}
	d.parents.Add(fileID, f.Parents)
	return f.Parents, nil
}

func (d *Drive) Delete(ctx context.Context, fileID string) Outcome {
	out := Outcome{Op: "delete drive file", Target: fileID}
	if fileID == "" {
		out.Err = errors.New("empty file id")
		return out
	}
	out.Err = d.svc.Files.Delete(fileID).Context(ctx).Do()
	d.parents.Remove(fileID)
	return out
}
