// Package resolver turns a tree of indexed data directories into a LoadPlan:
// a flat sequence of data files ordered so that every file reaches the
// datastore after everything its position in the tree declares it depends on.
package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dockhouse/dock/internal/dag"
	"github.com/dockhouse/dock/internal/index"
	"github.com/dockhouse/dock/internal/naming"
)

// Options configures tree traversal.
type Options struct {
	// IndexFile is the per-directory manifest filename.
	IndexFile string
	// Extensions lists loadable file extensions, dot included.
	Extensions []string
	// IgnoreDirs lists directory names skipped entirely.
	IgnoreDirs []string
}

// DefaultOptions mirrors the conventional project layout.
func DefaultOptions() Options {
	return Options{
		IndexFile:  "index.json",
		Extensions: []string{".csv"},
		IgnoreDirs: []string{"assets"},
	}
}

// ModelFile is one resolved plan entry: a data file bound to its target model.
type ModelFile struct {
	// Path is the filesystem path of the data file.
	Path string
	// Rel is the root-relative slash path, used as the graph node ID.
	Rel string
	// Model is the target model (table) name.
	Model string
	// Module is the module the model belongs to (parent directory).
	Module string
	// ModulePath is the slash-joined module chain from the root.
	ModulePath string
}

// Plan is the fully resolved, flattened load sequence for one tree.
type Plan struct {
	// Root is the data root the plan was resolved from.
	Root string
	// Entries holds plan entries in load order.
	Entries []ModelFile
	// Graph holds the order constraints behind the plan. Topological order
	// of the graph is consistent with Entries.
	Graph *dag.Graph
}

// Len returns the number of files in the plan.
func (p *Plan) Len() int {
	return len(p.Entries)
}

// Resolver resolves LoadPlans from indexed directory trees.
type Resolver struct {
	indexes    *index.Loader
	naming     naming.Strategy
	logger     *slog.Logger
	extensions []string
	ignoreDirs map[string]bool
}

// New creates a resolver. A nil logger discards output; zero-value option
// fields fall back to DefaultOptions.
func New(strategy naming.Strategy, logger *slog.Logger, opts Options) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	def := DefaultOptions()
	if opts.IndexFile == "" {
		opts.IndexFile = def.IndexFile
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = def.Extensions
	}
	if opts.IgnoreDirs == nil {
		opts.IgnoreDirs = def.IgnoreDirs
	}

	ignore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		ignore[d] = true
	}

	return &Resolver{
		indexes:    index.NewLoader(opts.IndexFile),
		naming:     strategy,
		logger:     logger,
		extensions: opts.Extensions,
		ignoreDirs: ignore,
	}
}

// Resolve walks the tree under root and returns its LoadPlan. Resolution is
// pure and fail-fast: the first convention violation aborts with no plan.
func (r *Resolver) Resolve(root string) (*Plan, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat data root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data root %s is not a directory", absRoot)
	}

	r.logger.Debug("resolving load plan", "root", absRoot)

	plan := &Plan{Root: absRoot, Graph: dag.New()}
	plan.Graph.AddNode(".", nil)

	walk := &walker{resolver: r, plan: plan, visiting: make(map[string]bool)}
	chain := []string{r.naming.Module(absRoot)}
	if _, err := walk.dir(absRoot, ".", chain); err != nil {
		return nil, err
	}

	// The graph is built from tree constraints alone and should never be
	// cyclic; reject defensively rather than emit an unorderable plan.
	if cyclic, cycle := plan.Graph.HasCycle(); cyclic {
		return nil, &CycleError{Dir: absRoot, Stack: cycle}
	}

	r.logger.Debug("load plan resolved", "files", plan.Len())
	return plan, nil
}

// walker carries per-resolution state.
type walker struct {
	resolver *Resolver
	plan     *Plan
	visiting map[string]bool // canonical paths currently on the stack
	stack    []string
}

// dir resolves one directory. rel is the root-relative slash path ("." for
// the root); chain is the module chain including this directory. It returns
// the last node emitted for the subtree, so a later sibling chains after the
// whole subtree rather than just the directory itself.
func (w *walker) dir(dir, rel string, chain []string) (string, error) {
	r := w.resolver

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", dir, err)
	}
	if w.visiting[canonical] {
		return "", &CycleError{Dir: dir, Stack: append(append([]string{}, w.stack...), dir)}
	}
	w.visiting[canonical] = true
	w.stack = append(w.stack, dir)
	defer func() {
		delete(w.visiting, canonical)
		w.stack = w.stack[:len(w.stack)-1]
	}()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	// Classify children. baseNames maps extension-less names onto real
	// filenames so ordering entries may omit the extension.
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	baseNames := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			// Follow symlinks so a linked directory is treated as one.
			if info, statErr := os.Stat(filepath.Join(dir, name)); statErr == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			if !r.ignoreDirs[name] {
				dirs[name] = true
			}
			continue
		}
		if name == r.indexes.Filename() || !r.loadable(name) {
			continue
		}
		files[name] = true
		baseNames[strings.TrimSuffix(name, filepath.Ext(name))] = name
	}

	if !r.indexes.Exists(dir) {
		if len(files) > 0 || r.anyLoadableUnder(dir, dirs) {
			return "", &index.MissingIndexError{Dir: dir, Filename: r.indexes.Filename()}
		}
		// Nothing to load here; no index required.
		return rel, nil
	}

	idx, err := r.indexes.Load(dir)
	if err != nil {
		return "", err
	}

	r.logger.Debug("resolving directory", "dir", dir, "ordering", len(idx.Ordering))

	matched := make(map[string]bool)
	prevID := rel
	for _, entry := range idx.Ordering {
		if dirs[entry] {
			childRel := joinRel(rel, entry)
			w.plan.Graph.AddNode(childRel, nil)
			if err := w.plan.Graph.AddEdge(prevID, childRel); err != nil {
				return "", err
			}
			childChain := append(append([]string{}, chain...), r.naming.Module(entry))
			lastID, err := w.dir(filepath.Join(dir, entry), childRel, childChain)
			if err != nil {
				return "", err
			}
			matched[entry] = true
			prevID = lastID
			continue
		}

		filename, ok := w.matchFile(entry, files, baseNames)
		if !ok {
			return "", &index.MalformedIndexError{
				Path:   filepath.Join(dir, r.indexes.Filename()),
				Reason: fmt.Sprintf("entry %q has no matching child", entry),
			}
		}

		fileRel := joinRel(rel, filename)
		mf := ModelFile{
			Path:       filepath.Join(dir, filename),
			Rel:        fileRel,
			Model:      r.naming.Model(filename),
			Module:     chain[len(chain)-1],
			ModulePath: strings.Join(chain, "/"),
		}
		w.plan.Entries = append(w.plan.Entries, mf)
		w.plan.Graph.AddNode(fileRel, &mf)
		if err := w.plan.Graph.AddEdge(prevID, fileRel); err != nil {
			return "", err
		}
		matched[filename] = true
		prevID = fileRel
	}

	// Ordering is authoritative: a loadable child the index does not name is
	// an error, not a silent append.
	for _, entry := range entries {
		name := entry.Name()
		if files[name] && !matched[name] {
			return "", &OrphanFileError{Path: filepath.Join(dir, name)}
		}
		if dirs[name] && !matched[name] && r.anyLoadableUnder(dir, map[string]bool{name: true}) {
			return "", &OrphanFileError{Path: filepath.Join(dir, name), IsDir: true}
		}
	}

	return prevID, nil
}

// matchFile resolves an ordering entry to a real filename: exact match first,
// then base name plus a supported extension.
func (w *walker) matchFile(entry string, files map[string]bool, baseNames map[string]string) (string, bool) {
	if files[entry] {
		return entry, true
	}
	if name, ok := baseNames[entry]; ok {
		return name, true
	}
	return "", false
}

// loadable reports whether a filename carries a supported extension.
func (r *Resolver) loadable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range r.extensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// anyLoadableUnder reports whether any of the named subdirectories of dir
// contain a loadable file, directly or transitively.
func (r *Resolver) anyLoadableUnder(dir string, names map[string]bool) bool {
	for name := range names {
		sub := filepath.Join(dir, name)
		entries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		childDirs := make(map[string]bool)
		for _, entry := range entries {
			n := entry.Name()
			if strings.HasPrefix(n, ".") {
				continue
			}
			if entry.IsDir() {
				if !r.ignoreDirs[n] {
					childDirs[n] = true
				}
				continue
			}
			if n != r.indexes.Filename() && r.loadable(n) {
				return true
			}
		}
		if len(childDirs) > 0 && r.anyLoadableUnder(sub, childDirs) {
			return true
		}
	}
	return false
}

func joinRel(rel, name string) string {
	if rel == "." {
		return name
	}
	return path.Join(rel, name)
}
