// Package corpus loads the static knowledge-article and ticket-history
// corpora once and serves them read-only.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/supportkb/internal/domain"
)

// Repo is a lazily loaded, immutable corpus. Each corpus is read at most
// once; a load failure is remembered and returned on every call.
type Repo struct {
	fsys         fs.FS
	articlesPath string
	ticketsPath  string

	articlesOnce sync.Once
	articles     []domain.Article
	byID         map[string]int
	articlesErr  error

	ticketsOnce sync.Once
	tickets     []domain.Ticket
	ticketsErr  error
}

// New creates a corpus repository reading from the OS filesystem.
// articlesPath is a JSON array file or a directory of <id>.txt files;
// ticketsPath is a JSON array file.
func New(articlesPath, ticketsPath string) *Repo {
	return &Repo{fsys: osFS{}, articlesPath: articlesPath, ticketsPath: ticketsPath}
}

// NewFS creates a corpus repository over an arbitrary filesystem.
func NewFS(fsys fs.FS, articlesPath, ticketsPath string) *Repo {
	return &Repo{fsys: fsys, articlesPath: articlesPath, ticketsPath: ticketsPath}
}

// Articles returns the knowledge-article corpus in corpus order.
func (r *Repo) Articles(_ context.Context) ([]domain.Article, error) {
	r.articlesOnce.Do(r.loadArticles)
	if r.articlesErr != nil {
		return nil, r.articlesErr
	}
	return r.articles, nil
}

// Article returns one article by id.
func (r *Repo) Article(ctx context.Context, id string) (domain.Article, error) {
	if _, err := r.Articles(ctx); err != nil {
		return domain.Article{}, err
	}
	i, ok := r.byID[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("article %q: %w", id, domain.ErrNotFound)
	}
	return r.articles[i], nil
}

// Tickets returns the ticket-history corpus in corpus order.
func (r *Repo) Tickets(_ context.Context) ([]domain.Ticket, error) {
	r.ticketsOnce.Do(r.loadTickets)
	if r.ticketsErr != nil {
		return nil, r.ticketsErr
	}
	return r.tickets, nil
}

func (r *Repo) loadArticles() {
	articles, err := r.readArticles()
	if err != nil {
		r.articlesErr = fmt.Errorf("%w: articles %s: %w", domain.ErrCorpusUnavailable, r.articlesPath, err)
		return
	}
	byID := make(map[string]int, len(articles))
	for i := range articles {
		if articles[i].ID == "" {
			r.articlesErr = fmt.Errorf("%w: article #%d has no id", domain.ErrCorpusUnavailable, i)
			return
		}
		if _, dup := byID[articles[i].ID]; dup {
			r.articlesErr = fmt.Errorf("%w: duplicate article id %q", domain.ErrCorpusUnavailable, articles[i].ID)
			return
		}
		byID[articles[i].ID] = i
	}
	r.articles, r.byID = articles, byID
}

func (r *Repo) readArticles() ([]domain.Article, error) {
	if r.articlesPath == "" {
		return nil, errors.New("path not configured")
	}
	info, err := fs.Stat(r.fsys, r.articlesPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return readArticleDir(r.fsys, r.articlesPath)
	}
	var articles []domain.Article
	if err := readJSON(r.fsys, r.articlesPath, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *Repo) loadTickets() {
	if r.ticketsPath == "" {
		r.ticketsErr = fmt.Errorf("%w: tickets path not configured", domain.ErrCorpusUnavailable)
		return
	}
	var tickets []domain.Ticket
	if err := readJSON(r.fsys, r.ticketsPath, &tickets); err != nil {
		r.ticketsErr = fmt.Errorf("%w: tickets %s: %w", domain.ErrCorpusUnavailable, r.ticketsPath, err)
		return
	}
	for i := range tickets {
		if tickets[i].ResolutionTimeHours < 0 {
			r.ticketsErr = fmt.Errorf("%w: ticket %q has negative resolution time",
				domain.ErrCorpusUnavailable, tickets[i].TicketID)
			return
		}
	}
	r.tickets = tickets
}

func readJSON(fsys fs.FS, path string, v any) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// readArticleDir reads <id>.txt files sorted by name. The id encodes
// category and tags: billing_payment_failure is category "billing",
// tags [billing payment failure], title "Billing Payment Failure".
func readArticleDir(fsys fs.FS, dir string) ([]domain.Article, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	title := cases.Title(language.English)
	var articles []domain.Article
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(e.Name(), ".txt")
		parts := strings.Split(id, "_")
		articles = append(articles, domain.Article{
			ID:       id,
			Category: parts[0],
			Title:    title.String(strings.Join(parts, " ")),
			Content:  strings.TrimSpace(string(data)),
			Tags:     parts,
		})
	}
	if len(articles) == 0 {
		return nil, errors.New("no .txt articles found")
	}
	return articles, nil
}

// osFS resolves paths against the OS filesystem as given (absolute or
// relative to the working directory), unlike os.DirFS.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) { return os.Open(name) }
