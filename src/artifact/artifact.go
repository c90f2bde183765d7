// Package artifact locates and verifies packaged build outputs.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/supernova/pipboy-build/src/config"
)

// Kind distinguishes installable packages from app bundles.
type Kind string

const (
	KindPackage Kind = "package"
	KindBundle  Kind = "bundle"
)

// Artifact is one packaged output file.
type Artifact struct {
	Path   string // slash-separated, relative to the scanned directory
	Kind   Kind
	Size   int64
	SHA256 string // set by Verify
}

// Name returns the file name.
func (a Artifact) Name() string {
	return filepath.Base(filepath.FromSlash(a.Path))
}

// SizeMB returns the size in binary megabytes.
func (a Artifact) SizeMB() float64 {
	return float64(a.Size) / 1024 / 1024
}

// Summary is the result of one scan.
type Summary struct {
	Dir       string // absolute directory that was scanned
	Artifacts []Artifact
}

// Count returns the number of artifacts found.
func (s Summary) Count() int { return len(s.Artifacts) }

// CountKind returns the number of artifacts of one kind.
func (s Summary) CountKind(k Kind) int {
	n := 0
	for _, a := range s.Artifacts {
		if a.Kind == k {
			n++
		}
	}
	return n
}

// Scan finds packages and bundles under cfg.Dir inside projectRoot.
// A missing directory yields an empty summary, not an error.
func Scan(projectRoot string, cfg config.ArtifactsConfig) (Summary, error) {
	dir := filepath.Join(projectRoot, cfg.Dir)
	sum := Summary{Dir: dir}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return sum, nil
	case err != nil:
		return sum, err
	case !info.IsDir():
		return sum, nil
	}

	fsys := os.DirFS(dir)
	for _, p := range []struct {
		kind    Kind
		pattern string
	}{
		{KindPackage, cfg.Package},
		{KindBundle, cfg.Bundle},
	} {
		err := doublestar.GlobWalk(fsys, p.pattern, func(path string, d fs.DirEntry) error {
			if !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			sum.Artifacts = append(sum.Artifacts, Artifact{Path: path, Kind: p.kind, Size: fi.Size()})
			return nil
		})
		if err != nil {
			return sum, fmt.Errorf("scanning %s for %s: %w", dir, p.pattern, err)
		}
	}

	sort.SliceStable(sum.Artifacts, func(i, j int) bool {
		if sum.Artifacts[i].Kind != sum.Artifacts[j].Kind {
			return sum.Artifacts[i].Kind == KindPackage
		}
		return sum.Artifacts[i].Path < sum.Artifacts[j].Path
	})
	return sum, nil
}

// Verify computes the SHA-256 of every artifact in sum, in place.
func Verify(ctx context.Context, sum *Summary) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := range sum.Artifacts {
		a := &sum.Artifacts[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			digest, err := fileSHA256(filepath.Join(sum.Dir, filepath.FromSlash(a.Path)))
			if err != nil {
				return fmt.Errorf("checksum %s: %w", a.Path, err)
			}
			a.SHA256 = digest
			return nil
		})
	}
	return g.Wait()
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
