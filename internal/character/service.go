// Package character implements the character operations over a record
// store and an image store. Nothing here knows about Discord.
package character

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/charabot/internal/blob"
	"github.com/rcliao/charabot/internal/metrics"
	"github.com/rcliao/charabot/internal/model"
	"github.com/rcliao/charabot/internal/store"
)

// nameColumn is enough to locate a record by name.
const nameColumn = "A:A"

// Service runs character operations.
type Service struct {
	records  store.Store
	images   blob.Store
	folderID string
	logger   *zap.Logger
	intn     func(n int) int
}

// Options configures a Service. The image store passed to NewService may
// be nil for read-only use; image cleanup is then skipped.
type Options struct {
	// FolderID is the image folder. Only images inside it are ever deleted.
	FolderID string
	Logger   *zap.Logger
	// Intn returns a uniform int in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// NewService creates a service over the given stores.
func NewService(records store.Store, images blob.Store, o Options) *Service {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Intn == nil {
		o.Intn = rand.IntN
	}
	return &Service{
		records:  records,
		images:   images,
		folderID: o.FolderID,
		logger:   o.Logger,
		intn:     o.Intn,
	}
}

// RegisterParams holds the fields for Register. Thumbnail and Main are
// source URLs of the attachments to copy into the image folder.
type RegisterParams struct {
	Name        string
	Description string
	URL         string
	Thumbnail   string
	Main        string
	Actor       model.User
}

// Register stores a new character after uploading its images.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*model.Character, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, ErrMissingName
	}

	rows, err := s.records.FetchRows(ctx, nameColumn)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if _, ok := findExact(decode(rows), name); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	thumb, main, err := s.uploadPair(ctx, name, p.Thumbnail, p.Main)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	c := model.Character{
		Name:           name,
		Description:    p.Description,
		URL:            model.EncodeReference(p.URL),
		MainImage:      main,
		Thumbnail:      thumb,
		RegistrantID:   p.Actor.ID,
		RegistrantName: p.Actor.Label(),
		EditorID:       p.Actor.ID,
		EditorName:     p.Actor.Label(),
	}
	if err := s.records.AppendRow(ctx, c.Values()); err != nil {
		s.discard(ctx, thumb, main)
		return nil, fmt.Errorf("register: %w", err)
	}
	s.logger.Info("character registered", zap.String("name", name), zap.String("user_id", p.Actor.ID))
	return &c, nil
}

// uploadPair uploads the thumbnail and main image concurrently. Empty
// sources are skipped. If either upload fails the other one is removed.
func (s *Service) uploadPair(ctx context.Context, name, thumbSrc, mainSrc string) (thumb, main string, err error) {
	g, gctx := errgroup.WithContext(ctx)
	if thumbSrc != "" {
		g.Go(func() error {
			link, err := s.images.Upload(gctx, thumbSrc, s.folderID, name+"-thumb")
			if err != nil {
				return fmt.Errorf("upload thumbnail: %w", err)
			}
			thumb = link
			return nil
		})
	}
	if mainSrc != "" {
		g.Go(func() error {
			link, err := s.images.Upload(gctx, mainSrc, s.folderID, name+"-large")
			if err != nil {
				return fmt.Errorf("upload main image: %w", err)
			}
			main = link
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, thumb, main)
		return "", "", err
	}
	return thumb, main, nil
}

// discard removes freshly uploaded images that ended up unreferenced.
func (s *Service) discard(ctx context.Context, links ...string) {
	for _, link := range links {
		if id, ok := blob.ResolveID(link); ok {
			s.cleanup(s.images.Delete(ctx, id))
		}
	}
}

func (s *Service) cleanup(o blob.Outcome) {
	if !o.OK() {
		metrics.BlobCleanupFailures.Inc()
	}
	o.Log(s.logger)
}

// SearchResult is the outcome of Search. Exact is set when the query
// matched a name after normalization, in which case Matches has one entry.
type SearchResult struct {
	Matches []model.Character `json:"matches"`
	Exact   bool              `json:"exact"`
	// Total counts every substring match before truncation to MaxChoices.
	Total int `json:"total"`
}

// Search looks a character up by name. A normalized exact match wins over
// substring matches.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrMissingName
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoData
	}

	if c, ok := findNormalized(all, query); ok {
		return &SearchResult{Matches: []model.Character{c}, Exact: true, Total: 1}, nil
	}
	matches := findContaining(all, query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	total := len(matches)
	if total > MaxChoices {
		matches = matches[:MaxChoices]
	}
	return &SearchResult{Matches: matches, Total: total}, nil
}

// Random returns a uniformly chosen character.
func (s *Service) Random(ctx context.Context) (*model.Character, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoData
	}
	for i := len(all) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		all[i], all[j] = all[j], all[i]
	}
	return &all[0], nil
}

// Get returns the character named exactly name.
func (s *Service) Get(ctx context.Context, name string) (*model.Character, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := findExact(all, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &c, nil
}

// EditParams holds the fields for Edit. Nil text fields and empty image
// sources leave the stored value unchanged.
type EditParams struct {
	Name        string
	Description *string
	URL         *string
	Thumbnail   string
	Main        string
	Actor       model.User
}

// Edit updates the supplied fields of an existing character and records
// the actor as the last editor.
func (s *Service) Edit(ctx context.Context, p EditParams) (*model.Character, error) {
	current, err := s.Get(ctx, p.Name)
	if err != nil {
		return nil, err
	}

	updated := *current
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.URL != nil {
		updated.URL = model.EncodeReference(*p.URL)
	}
	updated.EditorID = p.Actor.ID
	updated.EditorName = p.Actor.Label()

	thumb, main, err := s.uploadPair(ctx, current.Name, p.Thumbnail, p.Main)
	if err != nil {
		return nil, fmt.Errorf("edit %s: %w", current.Name, err)
	}
	var replaced []string
	if thumb != "" {
		replaced = append(replaced, current.Thumbnail)
		updated.Thumbnail = thumb
	}
	if main != "" {
		replaced = append(replaced, current.MainImage)
		updated.MainImage = main
	}

	ordinal, err := s.locate(ctx, *current)
	if err != nil {
		s.discard(ctx, thumb, main)
		return nil, err
	}
	updated.Ordinal = ordinal
	// Columns past the editor are left to the sheet.
	values := updated.Values()[:model.ColEditorName+1]
	if err := s.records.UpdateRow(ctx, ordinal, values); err != nil {
		s.discard(ctx, thumb, main)
		return nil, fmt.Errorf("edit %s: %w", current.Name, err)
	}

	for _, id := range s.ownedImages(ctx, replaced...) {
		s.cleanup(s.images.Delete(ctx, id))
	}
	s.logger.Info("character edited", zap.String("name", current.Name), zap.String("user_id", p.Actor.ID))
	return &updated, nil
}

// PendingDelete is a delete that has been resolved but not committed.
type PendingDelete struct {
	Character model.Character
	// ImageIDs are the record's images that live in the image folder.
	ImageIDs []string
}

// PrepareDelete resolves the record and the images that a delete would
// remove. Nothing is mutated.
func (s *Service) PrepareDelete(ctx context.Context, name string) (*PendingDelete, error) {
	c, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &PendingDelete{
		Character: *c,
		ImageIDs:  s.ownedImages(ctx, c.MainImage, c.Thumbnail),
	}, nil
}

// CommitDelete re-verifies the target row, removes its images on a best
// effort basis and then deletes the row.
func (s *Service) CommitDelete(ctx context.Context, p *PendingDelete) error {
	ordinal, err := s.locate(ctx, p.Character)
	if err != nil {
		return err
	}
	for _, id := range p.ImageIDs {
		s.cleanup(s.images.Delete(ctx, id))
	}
	if err := s.records.DeleteRow(ctx, ordinal); err != nil {
		return fmt.Errorf("delete %s: %w", p.Character.Name, err)
	}
	s.logger.Info("character deleted", zap.String("name", p.Character.Name), zap.Int("ordinal", ordinal))
	return nil
}

// Count returns the number of registered characters.
func (s *Service) Count(ctx context.Context) (int, error) {
	rows, err := s.records.FetchRows(ctx, nameColumn)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return len(decode(rows)), nil
}

// Import appends records as they are, image links included. Names that
// already exist are skipped. It returns the number of appended records.
func (s *Service) Import(ctx context.Context, records []model.Character) (int, error) {
	rows, err := s.records.FetchRows(ctx, nameColumn)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	seen := make(map[string]bool)
	for _, c := range decode(rows) {
		seen[c.Name] = true
	}

	n := 0
	for _, c := range records {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" || seen[c.Name] {
			s.logger.Debug("import skipped", zap.String("name", c.Name))
			continue
		}
		if err := s.records.AppendRow(ctx, c.Values()); err != nil {
			return n, fmt.Errorf("import %s: %w", c.Name, err)
		}
		seen[c.Name] = true
		n++
	}
	return n, nil
}

// List returns every character in sheet order.
func (s *Service) List(ctx context.Context) ([]model.Character, error) {
	rows, err := s.records.FetchRows(ctx, model.Columns)
	if err != nil {
		return nil, fmt.Errorf("fetch characters: %w", err)
	}
	return decode(rows), nil
}

// ownedImages resolves links to file ids inside the image folder. Links
// that do not resolve or point elsewhere are skipped.
func (s *Service) ownedImages(ctx context.Context, links ...string) []string {
	if s.images == nil {
		return nil
	}
	var ids []string
	for _, link := range links {
		if link == "" {
			continue
		}
		id, ok := blob.ResolveID(link)
		if !ok {
			s.logger.Debug("image link not resolvable, skipping", zap.String("link", link))
			continue
		}
		parents, err := s.images.Parents(ctx, id)
		if err != nil {
			s.logger.Warn("image lookup failed, skipping", zap.String("file_id", id), zap.Error(err))
			continue
		}
		if !slices.Contains(parents, s.folderID) {
			s.logger.Debug("image outside folder, skipping", zap.String("file_id", id))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// locate re-reads the name at c.Ordinal. If the row moved it is found
// again by name; if it is gone ErrStaleTarget is returned.
func (s *Service) locate(ctx context.Context, c model.Character) (int, error) {
	rows, err := s.records.FetchRows(ctx, nameColumn)
	if err != nil {
		return 0, fmt.Errorf("verify %s: %w", c.Name, err)
	}
	if i := c.Ordinal - 1; i >= model.HeaderRows && i < len(rows) && rows[i].Cell(model.ColName) == c.Name {
		return c.Ordinal, nil
	}
	if found, ok := findExact(decode(rows), c.Name); ok {
		s.logger.Info("record moved, using new position",
			zap.String("name", c.Name), zap.Int("from", c.Ordinal), zap.Int("to", found.Ordinal))
		return found.Ordinal, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrStaleTarget, c.Name)
}

// decode turns raw rows into characters, skipping the header and rows
// without a name.
func decode(rows []model.Row) []model.Character {
	var out []model.Character
	for i := model.HeaderRows; i < len(rows); i++ {
		if rows[i].Cell(model.ColName) == "" {
			continue
		}
		out = append(out, model.FromRow(i+1, rows[i]))
	}
	return out
}
