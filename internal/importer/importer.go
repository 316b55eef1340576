package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

// ErrInputRejected is returned for a missing file or one that is not a CSV export.
var ErrInputRejected = errors.New("input rejected")

// Classifier assigns a label to a transaction description.
type Classifier interface {
	Classify(description string) string
}

// Line is the outcome of parsing one data line of a bank export.
type Line struct {
	Number    int // 1-based line number in the source text
	Fields    int
	Malformed bool
	Record    model.Transaction // zero when Malformed
}

// Parser converts bank CSV text into candidate transactions, one line at a time.
type Parser interface {
	Lines(text string) iter.Seq[Line]
	Format() string
}

// Batch is the collected result of parsing a whole export.
type Batch struct {
	Candidates []model.Transaction
	DataLines  int // non-empty lines after the header
	Malformed  int
}

// Collect drains p over text. Malformed lines are counted, never returned as errors.
func Collect(p Parser, text string) Batch {
	var b Batch
	for line := range p.Lines(text) {
		b.DataLines++
		if line.Malformed {
			b.Malformed++
			continue
		}
		b.Candidates = append(b.Candidates, line.Record)
	}
	return b
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry(c Classifier) *Registry {
	r := NewRegistry()
	r.Register(NewWellsFargoParser(c))
	return r
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// IsCSV reports whether name has a .csv extension (any case).
func IsCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

// ReadFile returns the text of a bank export. Missing files and non-CSV names
// are reported as ErrInputRejected.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: no file selected", ErrInputRejected)
	}
	if !IsCSV(path) {
		return "", fmt.Errorf("%w: %s is not a CSV file", ErrInputRejected, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s not found", ErrInputRejected, path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Scan returns CSV files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !IsCSV(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
