package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
)

const (
	pgItemsQuery       = `SELECT connection_id, chunk_id, text, full_text, call_type, call_subtype FROM call_data`
	pgTaxonomyQuery    = `SELECT intent, sub_intent FROM intent_taxonomy ORDER BY 1, 2`
	pgAssignmentsQuery = `SELECT connection_id, annotator, reviewer FROM user_call_mapping`
)

// PostgresLoader reads the feeds from the call_data, intent_taxonomy and user_call_mapping tables.
type PostgresLoader struct {
	pool *pgxpool.Pool
}

func NewPostgresLoader(ctx context.Context, dsn string) (*PostgresLoader, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect source postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping source postgres: %w", err)
	}
	return &PostgresLoader{pool: pool}, nil
}

func (l *PostgresLoader) Describe() string { return "postgres" }

func (l *PostgresLoader) Close() { l.pool.Close() }

func (l *PostgresLoader) Load(ctx context.Context) (*Dataset, error) {
	ds := emptyDataset()
	var pairs []labeling.TaxonomyPair

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := l.pool.Query(gctx, pgItemsQuery)
		if err != nil {
			return tableErr("call_data", err)
		}
		items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (labeling.SourceItem, error) {
			var it labeling.SourceItem
			var text, full, callType, callSub *string
			if err := row.Scan(&it.ConnectionID, &it.ChunkID, &text, &full, &callType, &callSub); err != nil {
				return it, err
			}
			it.Text, it.FullText = deref(text), deref(full)
			it.DefaultIntents, it.DefaultSubIntents = deref(callType), deref(callSub)
			return it, nil
		})
		if err != nil {
			return tableErr("call_data", err)
		}
		ds.Items = items
		return nil
	})
	g.Go(func() error {
		rows, err := l.pool.Query(gctx, pgTaxonomyQuery)
		if err != nil {
			return tableErr("intent_taxonomy", err)
		}
		p, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (labeling.TaxonomyPair, error) {
			var intent, sub *string
			err := row.Scan(&intent, &sub)
			return labeling.TaxonomyPair{Intent: deref(intent), SubIntent: deref(sub)}, err
		})
		if err != nil {
			return tableErr("intent_taxonomy", err)
		}
		pairs = p
		return nil
	})
	g.Go(func() error {
		rows, err := l.pool.Query(gctx, pgAssignmentsQuery)
		if err != nil {
			return tableErr("user_call_mapping", err)
		}
		a, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (labeling.Assignment, error) {
			var out labeling.Assignment
			var ann, rev *string
			err := row.Scan(&out.ConnectionID, &ann, &rev)
			out.Annotator, out.Reviewer = deref(ann), deref(rev)
			return out, err
		})
		if err != nil {
			return tableErr("user_call_mapping", err)
		}
		ds.Assignments = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ds.Taxonomy = labeling.NewTaxonomy(pairs)
	ds.LoadedAt = time.Now().UTC()
	return ds, nil
}

func tableErr(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01":
			return fmt.Errorf("source table %s does not exist: %w", table, err)
		case "42703":
			return &MissingColumnError{File: table, Column: pgErr.Message}
		}
	}
	return fmt.Errorf("read %s: %w", table, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
