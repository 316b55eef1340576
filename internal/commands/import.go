package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/importer"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/ledger"
)

func newImportCommand() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import Wells Fargo CSV exports",
		Long: "Import the named CSV exports, or every CSV in import/ when no files are given.\n" +
			"Files taken from import/ are moved to import/processed/ afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), flags, args)
		},
	}
	flags.bind(cmd, true)

	return cmd
}

// importSource is one file to ingest; fromImportDir files are moved to
// import/processed/ once read.
type importSource struct {
	name          string
	path          string
	fromImportDir bool
}

func runImport(ctx context.Context, flags repoFlags, args []string) error {
	s, err := openSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	sources, err := importSources(s.dir, args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No CSV files to import.")
		return nil
	}

	var entries []activity.Entry
	memoryNotice := false
	for _, src := range sources {
		res, err := s.svc.IngestFile(src.path)
		if errors.Is(err, importer.ErrInputRejected) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", src.name, res.Message())
		if res.Malformed > 0 {
			fmt.Printf("  skipped %d malformed lines\n", res.Malformed)
		}
		if res.Status == ledger.StatusMemoryOnly && !memoryNotice {
			fmt.Fprintln(os.Stderr, "warning: running memory-only, imported transactions are not saved")
			memoryNotice = true
		}
		entries = append(entries, activity.New(activity.ActionImport, "%s: %s", src.name, res.Message()))

		if src.fromImportDir {
			if err := importer.MarkProcessed(s.dir, src.name); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
	}

	s.flush(ctx)
	if len(entries) > 0 {
		s.record(entries...)
		s.snapshot(fmt.Sprintf("import: %d file(s)", len(entries)))
	}
	return nil
}

func importSources(repoDir string, args []string) ([]importSource, error) {
	if len(args) > 0 {
		out := make([]importSource, len(args))
		for i, a := range args {
			out[i] = importSource{name: filepath.Base(a), path: a}
		}
		return out, nil
	}

	files, err := importer.Scan(repoDir)
	if err != nil {
		return nil, fmt.Errorf("scanning import directory: %w", err)
	}
	out := make([]importSource, len(files))
	for i, f := range files {
		out[i] = importSource{name: f.Name, path: f.Path, fromImportDir: true}
	}
	return out, nil
}
