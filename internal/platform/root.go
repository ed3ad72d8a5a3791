package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/quadrant/pkg/adapters/fs"
)

// rootIndicators mark a vault root, most specific first.
var rootIndicators = []string{
	fs.DefaultSystemDir,
	fs.DefaultConfigPath,
	".obsidian",
	".git",
}

// FindRoot looks upwards from startDir for a vault root indicator: the
// system directory, the configuration document, an .obsidian folder or a
// .git directory. It returns the absolute path of the first directory
// holding one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range rootIndicators {
			if hasFile(dir, name) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("vault root not found from %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
	return err == nil
}
