package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/config"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/gitops"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/importer"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/ledger"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/logging"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/rules"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/store"
)

// closeTimeout bounds how long a command waits for background saves.
const closeTimeout = 30 * time.Second

// repoFlags are the flags shared by every command that works on a project.
type repoFlags struct {
	repoDir    string
	memoryOnly bool
}

func (f *repoFlags) bind(cmd *cobra.Command, withMemory bool) {
	cmd.Flags().StringVar(&f.repoDir, "repo", ".", "project directory")
	if withMemory {
		cmd.Flags().BoolVar(&f.memoryOnly, "memory", false, "do not read or write the configured store")
	}
}

func (f *repoFlags) abs() (string, error) {
	dir, err := filepath.Abs(f.repoDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return dir, nil
}

// project is a loaded tracker.yaml plus the process logger.
type project struct {
	dir    string
	cfg    *config.Config
	logger *log.Logger
}

func loadProject(dir string) (*project, error) {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s is not a tracker project (run `tracker init` first)", dir)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, dir); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &project{dir: dir, cfg: cfg, logger: logger}, nil
}

func (p *project) ruleBook() (*rules.Book, error) {
	path := p.cfg.RulesPath(p.dir)
	table, err := rules.Load(path, p.cfg.Rules.IncludeDefaults)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	table.SetLogger(p.logger)
	return &rules.Book{Table: table, Path: path}, nil
}

// record appends to the activity log; failures only warn.
func (p *project) record(entries ...activity.Entry) {
	if err := activity.Append(p.dir, entries...); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write activity log: %v\n", err)
	}
}

// snapshot commits the data files when git.auto_commit is on.
func (p *project) snapshot(message string) {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.dir) {
		return
	}
	author := gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail}
	hash, err := gitops.Snapshot(p.dir, message, author, p.cfg.Store.Path, "rules", "logs", "import")
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		fmt.Fprintf(os.Stderr, "warning: git snapshot failed: %v\n", err)
	default:
		p.logger.Debug("committed snapshot", "hash", hash)
	}
}

// session is an open project with its ledger hydrated from the store.
type session struct {
	*project
	book *rules.Book
	svc  *ledger.Service
}

// openSession loads the project, opens the configured store and hydrates the
// ledger. A store that cannot be opened or read leaves the session running
// memory-only with a warning.
func openSession(ctx context.Context, flags repoFlags) (*session, error) {
	dir, err := flags.abs()
	if err != nil {
		return nil, err
	}
	p, err := loadProject(dir)
	if err != nil {
		return nil, err
	}
	book, err := p.ruleBook()
	if err != nil {
		return nil, err
	}
	parser := importer.DefaultRegistry(book.Table).Get(p.cfg.Import.Format)
	if parser == nil {
		return nil, fmt.Errorf("unknown import format %q in %s", p.cfg.Import.Format, config.FileName)
	}

	var st store.Store
	if !flags.memoryOnly {
		st, err = store.Open(ctx, p.cfg.StoreOptions(dir))
		if err != nil {
			p.logger.Warn("store unavailable", "driver", p.cfg.Store.Driver, "err", err)
			fmt.Fprintf(os.Stderr, "warning: transactions will not be saved: %v\n", err)
			st = nil
		}
	}

	svc := ledger.NewService(parser, st, ledger.WithLogger(p.logger))
	if err := svc.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: transactions will not be saved: %v\n", err)
	}
	return &session{project: p, book: book, svc: svc}, nil
}

// flush waits for background saves and warns about each failure.
func (s *session) flush(ctx context.Context) {
	failed, err := s.svc.Flush(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: gave up waiting for saves: %v\n", err)
		return
	}
	for _, o := range failed {
		fmt.Fprintf(os.Stderr, "warning: %s\n", o.Notice())
	}
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.svc.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing store: %v\n", err)
	}
}
