// Package blobtest provides an in-memory blob.Store for tests.
package blobtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rcliao/charabot/internal/blob"
)

// ErrNoFile is returned by Parents and Delete for unknown ids.
var ErrNoFile = errors.New("file not found")

// Memory records uploads and deletions. Files are keyed by a generated id
// and linked as Drive view links so blob.ResolveID understands them.
type Memory struct {
	mu      sync.Mutex
	next    int
	files   map[string]File
	deleted []string

	// FailUpload, when set, is consulted before each upload; a non-nil
	// return fails that upload.
	FailUpload func(sourceURL, nameHint string) error
	// FailDelete fails every deletion when set.
	FailDelete error
}

// File is one stored file.
type File struct {
	ID     string
	Name   string
	Source string
	Parent string
}

// New returns an empty store.
func New() *Memory {
	return &Memory{files: make(map[string]File)}
}

// Link renders the view link for id.
func Link(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view?usp=drivesdk"
}

// Add stores a file directly, for example one outside the image folder.
func (m *Memory) Add(parent, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("file-%04d", m.next)
	m.files[id] = File{ID: id, Name: name, Parent: parent}
	return id
}

func (m *Memory) Upload(ctx context.Context, sourceURL, folderID, nameHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.FailUpload != nil {
		if err := m.FailUpload(sourceURL, nameHint); err != nil {
			return "", err
		}
	}
	id := m.Add(folderID, nameHint+".jpg")
	m.mu.Lock()
	f := m.files[id]
	f.Source = sourceURL
	m.files[id] = f
	m.mu.Unlock()
	return Link(id), nil
}

func (m *Memory) Parents(_ context.Context, fileID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil, ErrNoFile
	}
	return []string{f.Parent}, nil
}

func (m *Memory) Delete(_ context.Context, fileID string) blob.Outcome {
	o := blob.Outcome{Op: "delete image", Target: fileID}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		o.Err = m.FailDelete
		return o
	}
	if _, ok := m.files[fileID]; !ok {
		o.Err = ErrNoFile
		return o
	}
	delete(m.files, fileID)
	m.deleted = append(m.deleted, fileID)
	return o
}

// Files returns the stored files whose name starts with prefix.
func (m *Memory) Files(prefix string) []File {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []File
	for _, f := range m.files {
		if strings.HasPrefix(f.Name, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// Deleted returns the ids removed so far, in order.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Has reports whether id is stored.
func (m *Memory) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[id]
	return ok
}
