package source

import (
	"context"
	"io"
	"path"
	"strings"
)

// ObjectReader opens one object of a bucket.
type ObjectReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Describe() string
}

// ObjectLoader reads the three CSV feeds from a bucket under an optional prefix.
type ObjectLoader struct {
	reader ObjectReader
	prefix string
}

func NewObjectLoader(reader ObjectReader, prefix string) *ObjectLoader {
	return &ObjectLoader{reader: reader, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}
}

func (l *ObjectLoader) Describe() string {
	if l.prefix == "" {
		return l.reader.Describe()
	}
	return l.reader.Describe() + "/" + l.prefix
}

func (l *ObjectLoader) key(name string) string {
	if l.prefix == "" {
		return name
	}
	return path.Join(l.prefix, name)
}

func (l *ObjectLoader) Load(ctx context.Context) (*Dataset, error) {
	return loadCSVSet(ctx, func(ctx context.Context, name string) (io.ReadCloser, error) {
		return l.reader.Open(ctx, l.key(name))
	})
}
