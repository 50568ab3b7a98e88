// Package blob stores character images in a Google Drive folder.
package blob

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Store is the image store used by the character service.
type Store interface {
	// Upload fetches sourceURL and stores it under folderID as
	// "<nameHint>.<ext>". It returns a link that dereferences the file.
	Upload(ctx context.Context, sourceURL, folderID, nameHint string) (string, error)

	// Parents returns the folder ids that contain fileID.
	Parents(ctx context.Context, fileID string) ([]string, error)

	// Delete removes fileID. Failures are reported in the Outcome, never
	// as an error, so callers cannot mistake them for fatal ones.
	Delete(ctx context.Context, fileID string) Outcome
}

// Outcome is the result of a best-effort side effect.
type Outcome struct {
	Op     string
	Target string
	Err    error
}

// OK reports whether the side effect succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Log records the outcome; failures are warnings.
func (o Outcome) Log(logger *zap.Logger) {
	if o.Err != nil {
		logger.Warn("best-effort operation failed, continuing",
			zap.String("op", o.Op), zap.String("target", o.Target), zap.Error(o.Err))
		return
	}
	logger.Debug("best-effort operation done", zap.String("op", o.Op), zap.String("target", o.Target))
}

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DefaultContentType is assumed when an attachment declares none.
const DefaultContentType = "image/jpeg"

// Extension maps a declared content type to a file extension, defaulting
// to jpg for missing or unknown types.
func Extension(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "jpg"
	}
	if ext, ok := extensions[strings.ToLower(mt)]; ok {
		return ext
	}
	return "jpg"
}

var (
	pathIDRegex  = regexp.MustCompile(`/d/([-\w]+)`)
	queryIDRegex = regexp.MustCompile(`[?&]id=([-\w]+)`)
	bareIDRegex  = regexp.MustCompile(`[-\w]{25,}`)
)

// ResolveID extracts the Drive file id from a link. ok is false when the
// link does not look like a Drive link; callers skip such references.
func ResolveID(link string) (id string, ok bool) {
	if m := pathIDRegex.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	if m := queryIDRegex.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	if m := bareIDRegex.FindString(link); m != "" {
		return m, true
	}
	return "", false
}

// DisplayURL turns a Drive viewer link into a direct link that chat
// clients can render inline. Other links are returned unchanged.
func DisplayURL(link string) string {
	if !strings.Contains(link, "/file/d/") {
		return link
	}
	if id, ok := ResolveID(link); ok {
		return "https://drive.google.com/uc?id=" + id
	}
	return link
}

// attachment is a downloaded source file.
type attachment struct {
	body        []byte
	contentType string
}

func fetchAttachment(ctx context.Context, client *http.Client, sourceURL string) (*attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch attachment: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = DefaultContentType
	}
	return &attachment{body: body, contentType: ct}, nil
}
