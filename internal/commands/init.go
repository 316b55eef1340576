package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/config"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/gitops"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/store"
)

func newInitCommand() *cobra.Command {
	var useGit bool
	var driver string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tracker project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, driver, useGit)
		},
	}

	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit data changes")
	cmd.Flags().StringVar(&driver, "store", "csv", "store driver (csv, postgres, aztables, memory)")

	return cmd
}

func runInit(dir, driver string, useGit bool) error {
	switch driver {
	case store.DriverCSV, store.DriverPostgres, store.DriverAzTables, store.DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", driver)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Store.Driver = driver
	cfg.Git.AutoCommit = useGit

	// Create directory structure.
	dirs := []string{
		cfg.Store.Path,
		"rules",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write empty categorization rules; the built-in table applies after them.
	if err := os.WriteFile(cfg.RulesPath(dir), []byte("rules: []\n"), 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	gitignore := cfg.Store.Path + "/sessions/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !useGit {
		fmt.Printf("Initialized tracker project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Snapshot(dir, "init: tracker project", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized tracker project at %s (%s)\n", dir, hash)
	return nil
}
