package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// DirLoader reads data.csv, intents.csv and mapping.csv from a local directory.
type DirLoader struct {
	Dir string
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{Dir: dir}
}

func (l *DirLoader) Describe() string { return "dir:" + l.Dir }

func (l *DirLoader) Load(ctx context.Context) (*Dataset, error) {
	return loadCSVSet(ctx, func(_ context.Context, name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(l.Dir, name))
	})
}
