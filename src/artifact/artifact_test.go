package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supernova/pipboy-build/src/config"
)

func put(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestScan_MissingDirectoryIsEmpty(t *testing.T) {
	sum, err := Scan(t.TempDir(), config.DefaultArtifactsConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Count())
}

func TestScan_CountsPackagesAndBundlesRecursively(t *testing.T) {
	root := t.TempDir()
	put(t, root, "build/outputs/apk/debug/app-debug.apk", make([]byte, 3*1024*1024))
	put(t, root, "build/outputs/apk/wear/debug/wear-debug.apk", []byte("wear"))
	put(t, root, "build/outputs/apk/bundle/app-debug.aab", []byte("bundle"))
	put(t, root, "build/outputs/apk/debug/output-metadata.json", []byte("{}"))
	put(t, root, "build/outputs/mapping/release/mapping.txt", []byte("x"))

	sum, err := Scan(root, config.DefaultArtifactsConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Count())
	assert.Equal(t, 2, sum.CountKind(KindPackage))
	assert.Equal(t, 1, sum.CountKind(KindBundle))

	first := sum.Artifacts[0]
	assert.Equal(t, "debug/app-debug.apk", first.Path)
	assert.Equal(t, "app-debug.apk", first.Name())
	assert.InDelta(t, 3.0, first.SizeMB(), 0.001)
	assert.Equal(t, KindBundle, sum.Artifacts[2].Kind)
}

func TestScan_FileInPlaceOfDirectory(t *testing.T) {
	root := t.TempDir()
	put(t, root, "build/outputs/apk", []byte("not a dir"))

	sum, err := Scan(root, config.DefaultArtifactsConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Count())
}

func TestVerify_Checksums(t *testing.T) {
	root := t.TempDir()
	put(t, root, "build/outputs/apk/release/app-release.apk", []byte("pipboy-3000"))
	put(t, root, "build/outputs/apk/release/app-release.aab", []byte("pipboy-3000-bundle"))

	sum, err := Scan(root, config.DefaultArtifactsConfig())
	require.NoError(t, err)
	require.NoError(t, Verify(context.Background(), &sum))

	want := sha256.Sum256([]byte("pipboy-3000"))
	assert.Equal(t, hex.EncodeToString(want[:]), sum.Artifacts[0].SHA256)
	assert.NotEmpty(t, sum.Artifacts[1].SHA256)
}

func TestVerify_MissingFile(t *testing.T) {
	sum := Summary{Dir: t.TempDir(), Artifacts: []Artifact{{Path: "gone.apk", Kind: KindPackage}}}
	require.Error(t, Verify(context.Background(), &sum))
}
