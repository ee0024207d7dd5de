package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"block-manifests/tests/testutil"
)

func TestValidateCommandE2E(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.FixtureProject(t)

	cmd := exec.Command("go", "run", "./cmd/block-manifests", "validate",
		"--root", project,
		"--store", "none",
		"--no-cache",
	)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	require.Contains(t, string(out), "validated: eightshift")
}

func TestCacheBuildCommandE2E(t *testing.T) {
	root := testutil.RepoRoot(t)
	project := testutil.FixtureProject(t)

	cmd := exec.Command("go", "run", "./cmd/block-manifests", "cache", "build",
		"--root", project,
		"--store", "sqlite",
	)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	require.FileExists(t, filepath.Join(project, "cache", "blocks", "manifests.json"))
	require.FileExists(t, filepath.Join(project, "cache", "manifests.db"))
}
