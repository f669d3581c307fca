package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
)

const (
	DataFile     = "data.csv"
	IntentsFile  = "intents.csv"
	MappingFile  = "mapping.csv"
	colConnID    = "ConnectionID"
	colChunkID   = "chunk_id"
	colText      = "text"
	colFullText  = "full_text"
	colCallType  = "Call Type"
	colCallSub   = "Call SubType"
	colIntent    = "Intent"
	colSubIntent = "Sub Intent"
	colAnnotator = "Annotator"
	colReviewer  = "Reviewer"
)

// MissingColumnError names the absent column and the file it was expected in.
type MissingColumnError struct {
	File   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %q", e.File, e.Column)
}

type opener func(ctx context.Context, name string) (io.ReadCloser, error)

// loadCSVSet reads the three feeds concurrently.
func loadCSVSet(ctx context.Context, open opener) (*Dataset, error) {
	ds := emptyDataset()
	var pairs []labeling.TaxonomyPair

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := readWith(gctx, open, DataFile, ParseItems)
		ds.Items = items
		return err
	})
	g.Go(func() error {
		p, err := readWith(gctx, open, IntentsFile, ParseTaxonomy)
		pairs = p
		return err
	})
	g.Go(func() error {
		a, err := readWith(gctx, open, MappingFile, ParseAssignments)
		ds.Assignments = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ds.Taxonomy = labeling.NewTaxonomy(pairs)
	ds.LoadedAt = time.Now().UTC()
	return ds, nil
}

func readWith[T any](ctx context.Context, open opener, name string, parse func(string, io.Reader) ([]T, error)) ([]T, error) {
	rc, err := open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	return parse(name, rc)
}

type table struct {
	file   string
	header map[string]int
	rows   [][]string
}

func readTable(file string, r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnError{File: file, Column: required[0]}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", file, err)
	}
	t := &table{file: file, header: map[string]int{}}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := t.header[h]; !dup {
			t.header[h] = i
		}
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, &MissingColumnError{File: file, Column: col}
		}
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	t.rows = rows
	return t, nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func ParseItems(file string, r io.Reader) ([]labeling.SourceItem, error) {
	t, err := readTable(file, r, colConnID, colChunkID, colText, colFullText, colCallType, colCallSub)
	if err != nil {
		return nil, err
	}
	out := make([]labeling.SourceItem, 0, len(t.rows))
	for n, row := range t.rows {
		chunk, err := parseChunkID(t.get(row, colChunkID))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", file, n+2, err)
		}
		out = append(out, labeling.SourceItem{
			ConnectionID:      t.get(row, colConnID),
			ChunkID:           chunk,
			Text:              t.get(row, colText),
			FullText:          t.get(row, colFullText),
			DefaultIntents:    t.get(row, colCallType),
			DefaultSubIntents: t.get(row, colCallSub),
		})
	}
	return out, nil
}

func ParseTaxonomy(file string, r io.Reader) ([]labeling.TaxonomyPair, error) {
	t, err := readTable(file, r, colIntent, colSubIntent)
	if err != nil {
		return nil, err
	}
	out := make([]labeling.TaxonomyPair, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, labeling.TaxonomyPair{Intent: t.get(row, colIntent), SubIntent: t.get(row, colSubIntent)})
	}
	return out, nil
}

func ParseAssignments(file string, r io.Reader) ([]labeling.Assignment, error) {
	t, err := readTable(file, r, colConnID, colAnnotator, colReviewer)
	if err != nil {
		return nil, err
	}
	out := make([]labeling.Assignment, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, labeling.Assignment{
			ConnectionID: t.get(row, colConnID),
			Annotator:    t.get(row, colAnnotator),
			Reviewer:     t.get(row, colReviewer),
		})
	}
	return out, nil
}

// parseChunkID accepts integers and integral floats such as "3.0".
func parseChunkID(raw string) (int, error) {
	if i, err := strconv.Atoi(raw); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid chunk_id %q", raw)
	}
	return int(f), nil
}
