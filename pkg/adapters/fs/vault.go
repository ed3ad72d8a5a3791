package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/fields"
	"github.com/aretw0/quadrant/pkg/git"
)

// DefaultSystemDir holds the index cache and is never scanned.
const DefaultSystemDir = ".quadrant"

// Config holds the configuration for the filesystem adapters.
type Config struct {
	Path      string
	SystemDir string // e.g. ".quadrant"
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger

	// Versioned commits every gateway mutation to git. The vault is
	// initialized as a repository when it is not one yet.
	Versioned bool

	// Location resolves done-date markers. Defaults to time.Local.
	Location *time.Location

	// ErrorHandler receives watcher failures that have no caller to return to.
	ErrorHandler func(error)
}

// Vault is a directory of Markdown notes. It implements core.ItemSource and
// core.Watchable.
type Vault struct {
	Path   string
	config Config
	logger *slog.Logger
	cache  *cache
	git    *git.Client

	mu            sync.RWMutex
	cacheLoaded   bool
	watcherActive bool
	lastScan      *time.Time
	lastScanFiles int
}

var (
	_ core.ItemSource = (*Vault)(nil)
	_ core.Watchable  = (*Vault)(nil)
)

// NewVault creates a vault rooted at config.Path.
func NewVault(config Config) *Vault {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	v := &Vault{
		Path:   config.Path,
		config: config,
		logger: config.Logger,
		cache:  newCache(config.Path, config.SystemDir),
	}
	if config.Versioned {
		v.git = git.NewClient(config.Path, "", config.Logger)
	}
	return v
}

// Initialize prepares the vault directory. With versioning enabled it also
// makes sure the vault is a git repository ignoring the system directory.
func (v *Vault) Initialize(ctx context.Context) error {
	if v.config.MustExist {
		info, err := os.Stat(v.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", v.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", v.Path)
		}
	} else if !v.config.ReadOnly {
		if err := os.MkdirAll(v.Path, 0755); err != nil {
			return fmt.Errorf("failed to create vault directory: %w", err)
		}
	}

	if v.git == nil || v.config.ReadOnly {
		return nil
	}
	if !git.IsInstalled() {
		return errors.New("versioning requires git, which is not installed")
	}
	if !v.git.IsRepo(ctx) {
		if err := v.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
	}
	if _, err := v.ensureIgnore(); err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	return nil
}

func (v *Vault) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(v.Path, ".gitignore")
	entries := []string{v.config.SystemDir + "/", git.DefaultLockName}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	lines := strings.Split(string(content), "\n")
	var missing []string
	for _, e := range entries {
		if !slices.ContainsFunc(lines, func(l string) bool { return strings.TrimSpace(l) == e }) {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	out := string(content)
	if len(out) > 0 && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += strings.Join(missing, "\n") + "\n"
	return true, writeFileAtomic(ignorePath, []byte(out), 0644)
}

// scannedFile is one Markdown file as seen by a scan.
type scannedFile struct {
	rel   string
	entry *indexEntry
}

// ListNotes returns every Markdown note outside the excluded folders.
// Content is left empty; use Read for the body of a single note.
func (v *Vault) ListNotes(ctx context.Context, excluded []string) ([]core.Note, error) {
	files, err := v.scan(ctx, excluded)
	if err != nil {
		return nil, err
	}
	notes := make([]core.Note, 0, len(files))
	for _, f := range files {
		notes = append(notes, core.Note{
			Path:       f.rel,
			Name:       noteName(f.rel),
			Properties: cloneProps(f.entry.Properties),
		})
	}
	return notes, nil
}

// ListTasks returns every checklist line outside the excluded folders.
func (v *Vault) ListTasks(ctx context.Context, excluded []string) ([]core.Task, error) {
	files, err := v.scan(ctx, excluded)
	if err != nil {
		return nil, err
	}
	var tasks []core.Task
	for _, f := range files {
		for _, t := range f.entry.Tasks {
			tasks = append(tasks, toTask(f.rel, t))
		}
	}
	if tasks == nil {
		tasks = []core.Task{}
	}
	return tasks, nil
}

// Read loads a single note including its body.
func (v *Vault) Read(ctx context.Context, notePath string) (core.Note, error) {
	if err := ctx.Err(); err != nil {
		return core.Note{}, err
	}
	abs, rel, err := v.resolve(notePath)
	if err != nil {
		return core.Note{}, err
	}
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return core.Note{}, fmt.Errorf("%w: %s", core.ErrNoteNotFound, rel)
	}
	if err != nil {
		return core.Note{}, err
	}
	doc, err := parseDocument(data)
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	props, err := doc.Properties()
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	return core.Note{
		Path:       rel,
		Name:       noteName(rel),
		Properties: fields.Normalize(props),
		Content:    string(doc.body),
	}, nil
}

// scan walks the vault, reusing index entries for files whose mtime and
// size did not change.
func (v *Vault) scan(ctx context.Context, excluded []string) ([]scannedFile, error) {
	v.loadCache()

	var files []scannedFile
	seen := make(map[string]bool)

	err := filepath.WalkDir(v.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == v.Path {
				return err
			}
			v.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(v.Path, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == v.Path {
				return nil
			}
			if v.skipDir(d.Name()) || isExcluded(rel, excluded) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(d.Name()) || isTempFile(d.Name()) || isExcluded(rel, excluded) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		seen[rel] = true

		entry, ok := v.cache.Get(rel, info.ModTime(), info.Size())
		if !ok {
			entry, err = v.index(path, rel, info)
			if err != nil {
				v.logger.Warn("skipping unreadable note", "path", rel, "error", err)
				return nil
			}
		}
		files = append(files, scannedFile{rel: rel, entry: entry})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}

	v.cache.Prune(func(rel string) bool {
		return seen[rel] || isExcluded(rel, excluded)
	})
	if !v.config.ReadOnly {
		if err := v.cache.Save(); err != nil {
			v.logger.Warn("failed to save index", "error", err)
		}
	}

	now := time.Now()
	v.mu.Lock()
	v.lastScan = &now
	v.lastScanFiles = len(files)
	v.mu.Unlock()

	v.logger.Debug("vault scanned", "files", len(files))
	return files, nil
}

// index parses one file and records it in the cache. A malformed
// frontmatter block yields no properties but the tasks are still read.
func (v *Vault) index(path, rel string, info fs.FileInfo) (*indexEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	props := map[string]any{}
	if doc, err := parseDocument(data); err != nil {
		v.logger.Warn("ignoring malformed frontmatter", "path", rel, "error", err)
	} else if p, err := doc.Properties(); err != nil {
		v.logger.Warn("ignoring malformed frontmatter", "path", rel, "error", err)
	} else {
		props = fields.Normalize(p)
	}

	entry := &indexEntry{
		Properties:   props,
		Tasks:        parseTasks(data, v.config.Location),
		LastModified: info.ModTime(),
		Size:         info.Size(),
	}
	v.cache.Set(rel, entry)
	return entry, nil
}

func (v *Vault) loadCache() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cacheLoaded {
		return
	}
	if err := v.cache.Load(); err != nil {
		v.logger.Warn("failed to load index, starting cold", "error", err)
	}
	v.cacheLoaded = true
}

// invalidate drops the index entry of a file the gateway just rewrote.
func (v *Vault) invalidate(rel string) {
	v.cache.Delete(rel)
}

// resolve maps a vault-relative path to an absolute one, rejecting paths
// that escape the vault.
func (v *Vault) resolve(notePath string) (abs, rel string, err error) {
	clean := filepath.Clean(filepath.FromSlash(notePath))
	if filepath.IsAbs(clean) {
		r, err := filepath.Rel(v.Path, clean)
		if err != nil {
			return "", "", fmt.Errorf("path %s is outside the vault", notePath)
		}
		clean = r
	}
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path %s is outside the vault", notePath)
	}
	return filepath.Join(v.Path, clean), filepath.ToSlash(clean), nil
}

func (v *Vault) skipDir(name string) bool {
	return name == v.config.SystemDir || name == ".git"
}

// isExcluded matches rel against the excluded folders. Plain entries
// exclude their whole subtree; entries with glob metacharacters are
// doublestar patterns over the vault-relative path.
func isExcluded(rel string, excluded []string) bool {
	for _, ex := range excluded {
		ex = strings.Trim(filepath.ToSlash(strings.TrimSpace(ex)), "/")
		if ex == "" {
			continue
		}
		if strings.ContainsAny(ex, "*?[{") {
			if ok, _ := doublestar.Match(ex, rel); ok {
				return true
			}
			continue
		}
		if rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	return false
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

func noteName(rel string) string {
	base := filepath.Base(filepath.FromSlash(rel))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func cloneProps(p map[string]any) core.Properties {
	out := make(core.Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func toTask(rel string, t parsedTask) core.Task {
	task := core.Task{
		File:      rel,
		Line:      t.Line,
		Text:      t.Text,
		Tags:      slices.Clone(t.Tags),
		Status:    t.Status,
		Completed: t.Completed(),
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		task.CompletedAt = &at
	}
	return task
}
