package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	// base/
	//   vault/ (.quadrant)
	//     subdir/
	//       nested/
	//   obsidian/ (.obsidian)
	//     notes/
	//   empty/
	baseDir := t.TempDir()
	vaultDir := filepath.Join(baseDir, "vault")
	subDir := filepath.Join(vaultDir, "subdir")
	nestedDir := filepath.Join(subDir, "nested")
	obsidianDir := filepath.Join(baseDir, "obsidian")
	notesDir := filepath.Join(obsidianDir, "notes")
	emptyDir := filepath.Join(baseDir, "empty")

	for _, d := range []string{nestedDir, notesDir, emptyDir} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}
	require.NoError(t, os.Mkdir(filepath.Join(vaultDir, ".quadrant"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(obsidianDir, ".obsidian"), 0755))

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{name: "Start at Root", startPath: vaultDir, wantRoot: vaultDir},
		{name: "Start in Subdir", startPath: subDir, wantRoot: vaultDir},
		{name: "Start Nested Deeply", startPath: nestedDir, wantRoot: vaultDir},
		{name: "Obsidian Vault", startPath: notesDir, wantRoot: obsidianDir},
		{name: "No Root Found", startPath: emptyDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath)
			if tt.wantErr {
				// A marker above the temp dir (e.g. a checkout) is still a valid answer.
				if err == nil {
					assert.NotContains(t, got, baseDir)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.wantRoot), filepath.Clean(got))
		})
	}
}
