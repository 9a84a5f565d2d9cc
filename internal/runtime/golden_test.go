package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// goldenTest runs a .ql file and compares its output to a .expected file.
func goldenTest(t *testing.T, name string) {
	t.Helper()

	qlPath := filepath.Join("..", "..", "testdata", name+".ql")
	expectedPath := filepath.Join("..", "..", "testdata", name+".expected")

	source, err := os.ReadFile(qlPath)
	require.NoError(t, err)
	expected, err := os.ReadFile(expectedPath)
	require.NoError(t, err)

	got, _, err := runSource(t, string(source))
	require.NoError(t, err, "runtime error in %s", qlPath)

	expectedLines := strings.Split(strings.TrimRight(string(expected), "\n"), "\n")
	gotLines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if diff := cmp.Diff(expectedLines, gotLines); diff != "" {
		t.Errorf("output mismatch for %s (-expected +got):\n%s", name, diff)
	}
}

func TestGoldenClasses(t *testing.T) {
	goldenTest(t, "golden_classes")
}

func TestGoldenCollections(t *testing.T) {
	goldenTest(t, "golden_collections")
}

func TestGoldenFunctions(t *testing.T) {
	goldenTest(t, "golden_functions")
}
