package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"image/png":                "png",
		"image/gif":                "gif",
		"image/jpeg":               "jpg",
		"IMAGE/PNG":                "png",
		"image/webp; charset=x":    "webp",
		"application/octet-stream": "jpg",
		"":                         "jpg",
	}
	for ct, want := range cases {
		assert.Equal(t, want, Extension(ct), "content type %q", ct)
	}
}

func TestResolveID(t *testing.T) {
	cases := []struct {
		link string
		id   string
		ok   bool
	}{
		{"https://drive.google.com/file/d/1AbC_def-ghi/view?usp=drivesdk", "1AbC_def-ghi", true},
		{"https://drive.google.com/uc?id=1AbC_def", "1AbC_def", true},
		{"https://drive.google.com/open?usp=x&id=XyZ", "XyZ", true},
		{"1XC1Ny2tsC6mA05dxM6dZ-cpv743E1vh8", "1XC1Ny2tsC6mA05dxM6dZ-cpv743E1vh8", true},
		{"https://example.com/image.png", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := ResolveID(tc.link)
		assert.Equal(t, tc.ok, ok, tc.link)
		assert.Equal(t, tc.id, id, tc.link)
	}
}

func TestDisplayURL(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/uc?id=abc",
		DisplayURL("https://drive.google.com/file/d/abc/view?usp=drivesdk"))
	assert.Equal(t, "https://example.com/a.png", DisplayURL("https://example.com/a.png"))
	assert.Equal(t, "", DisplayURL(""))
}

func TestFetchAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png-bytes"))
		case "/none":
			w.Header()["Content-Type"] = nil
			w.Write([]byte("raw"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	att, err := fetchAttachment(ctx, srv.Client(), srv.URL+"/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.contentType)
	assert.Equal(t, "png-bytes", string(att.body))

	att, err = fetchAttachment(ctx, srv.Client(), srv.URL+"/none")
	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, att.contentType)

	_, err = fetchAttachment(ctx, srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestOutcomeLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	Outcome{Op: "delete", Target: "a"}.Log(logger)
	Outcome{Op: "delete", Target: "b", Err: errors.New("quota")}.Log(logger)

	require.Equal(t, 2, logs.Len())
	warn := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, "b", warn[0].ContextMap()["target"])
}
