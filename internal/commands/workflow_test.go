package commands_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "wellsfargo_checking.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

// dataLines returns the lines of the csv store, nil when nothing was stored.
func dataLines(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "data", "transactions.csv"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// positionOf finds the #N shown by `tracker list` for the row containing desc.
func positionOf(t *testing.T, listing, desc string) string {
	t.Helper()
	re := regexp.MustCompile(`#(\d+)\s.*` + regexp.QuoteMeta(desc))
	m := re.FindStringSubmatch(listing)
	require.NotNil(t, m, "no row for %s in:\n%s", desc, listing)
	return m[1]
}

func TestImport_FromImportDir(t *testing.T) {
	dir := initProject(t)
	copyFixture(t, filepath.Join(dir, "import", "checking.csv"))

	out, err := runTracker(t, "import", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "checking.csv: Added 5 New Transactions. Skipped 1 Duplicates")
	assert.Contains(t, out, "skipped 1 malformed lines")

	_, err = os.Stat(filepath.Join(dir, "import", "checking.csv"))
	assert.True(t, os.IsNotExist(err), "file should leave import/")
	processed := filepath.Join(dir, "import", "processed", "checking.csv")
	assert.FileExists(t, processed)

	lines := dataLines(t, dir)
	require.Len(t, lines, 6, "header + 5 transactions")
	assert.Equal(t, "id,date,description,amount,custom_description", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,01/15/2025,STARBUCKS STORE #123,-45.00,"), lines[1])

	out, err = runTracker(t, "import", "--repo", dir, processed)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No New Transactions Found -> All Transactions Already Added")
	assert.Len(t, dataLines(t, dir), 6)
}

func TestImport_NothingToImport(t *testing.T) {
	dir := initProject(t)
	out, err := runTracker(t, "import", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No CSV files to import.")
}

func TestImport_RejectsNonCSV(t *testing.T) {
	dir := initProject(t)
	pdf := filepath.Join(dir, "statement.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))

	out, err := runTracker(t, "import", "--repo", dir, pdf, filepath.Join(dir, "missing.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "statement.pdf is not a CSV file")
	assert.Contains(t, out, "missing.csv not found")
	assert.Empty(t, dataLines(t, dir))
}

func TestImport_MemoryOnly(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "checking.csv")
	copyFixture(t, src)

	out, err := runTracker(t, "import", "--repo", dir, "--memory", src)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added 5 New Transactions")
	assert.Contains(t, out, "memory-only")
	assert.Empty(t, dataLines(t, dir))
}

func TestImport_FormatFromConfig(t *testing.T) {
	dir := initProject(t)
	cfgPath := filepath.Join(dir, "tracker.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	src := filepath.Join(t.TempDir(), "checking.csv")
	copyFixture(t, src)

	upper := strings.Replace(string(data), "format: wellsfargo", "format: WellsFargo", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(upper), 0o644))
	out, err := runTracker(t, "import", "--repo", dir, "--memory", src)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added 5 New Transactions")

	unknown := strings.Replace(string(data), "format: wellsfargo", "format: chase", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(unknown), 0o644))
	out, err = runTracker(t, "import", "--repo", dir, "--memory", src)
	require.Error(t, err)
	assert.Contains(t, out, `unknown import format "chase"`)
}

func TestListEditClear(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "checking.csv")
	copyFixture(t, src)
	out, err := runTracker(t, "import", "--repo", dir, src)
	require.NoError(t, err, out)

	out, err = runTracker(t, "list", "--repo", dir)
	require.NoError(t, err, out)
	assert.Less(t, strings.Index(out, "February 2025"), strings.Index(out, "January 2025"))
	assert.Contains(t, out, "Starbucks Coffee")
	assert.Contains(t, out, "Uber Eats Food Delivery")

	pos := positionOf(t, out, "STARBUCKS STORE #123")
	out, err = runTracker(t, "edit", "--repo", dir, pos, "Morning coffee")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Updated #"+pos)

	out, err = runTracker(t, "list", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Morning coffee")
	assert.NotContains(t, out, "Starbucks Coffee")

	out, err = runTracker(t, "edit", "--repo", dir, "99", "x")
	require.Error(t, err)
	assert.Contains(t, out, "no such transaction")

	out, err = runTrackerInput(t, "n\n", "clear", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "clear aborted")
	assert.Len(t, dataLines(t, dir), 6)

	out, err = runTrackerInput(t, "y\n", "clear", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "All transactions cleared.")
	assert.Empty(t, dataLines(t, dir))

	out, err = runTracker(t, "list", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No transactions.")

	log, err := os.ReadFile(filepath.Join(dir, "logs", "activity.csv"))
	require.NoError(t, err)
	for _, action := range []string{",import,", ",edit,", ",clear,"} {
		assert.Contains(t, string(log), action)
	}
}

func TestClear_BlockedByOtherSession(t *testing.T) {
	dir := initProject(t)
	src := filepath.Join(t.TempDir(), "checking.csv")
	copyFixture(t, src)
	out, err := runTracker(t, "import", "--repo", dir, src)
	require.NoError(t, err, out)

	lock := filepath.Join(dir, "data", "sessions", "other.lock")
	require.NoError(t, os.WriteFile(lock, []byte("1\n"), 0o644))

	out, err = runTracker(t, "clear", "--yes", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "clear blocked")
	assert.Len(t, dataLines(t, dir), 6, "stored transactions survive a blocked clear")

	require.NoError(t, os.Remove(lock))
	out, err = runTracker(t, "clear", "--yes", "--repo", dir)
	require.NoError(t, err, out)
	assert.Empty(t, dataLines(t, dir))
}

func TestRules_AddAndList(t *testing.T) {
	dir := initProject(t)

	out, err := runTracker(t, "rules", "add", "--repo", dir, "UNKNOWN VENDOR", "Misc Vendor")
	require.NoError(t, err, out)

	data, err := os.ReadFile(filepath.Join(dir, "rules", "categorization-rules.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "UNKNOWN VENDOR")

	out, err = runTracker(t, "rules", "list", "--repo", dir)
	require.NoError(t, err, out)
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 2)
	assert.Contains(t, lines[1], "UNKNOWN VENDOR")
	assert.Contains(t, out, "(shadowed)")

	out, err = runTracker(t, "rules", "add", "--repo", dir, "(", "Broken")
	require.Error(t, err)
	assert.Contains(t, out, "compiling pattern")

	src := filepath.Join(t.TempDir(), "checking.csv")
	copyFixture(t, src)
	out, err = runTracker(t, "import", "--repo", dir, src)
	require.NoError(t, err, out)
	out, err = runTracker(t, "list", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Misc Vendor")
}
