package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// PostgresStore implements Store on a season_records table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPool creates a verified connection pool for dsn.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore connects to dsn and applies the embedded migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies embedded SQL files in lexical order. Files are idempotent.
func (s *PostgresStore) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		data, err := fs.ReadFile(migrationsFS, "sql/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

const upsertSeason = `
	INSERT INTO season_records (
		id, username, season_id, season_start, season_end,
		ranked_tokens, brawl_tokens, tournament_tokens, entry_fees_tokens,
		ranked_usd, brawl_usd, tournament_usd, entry_fees_usd, overall_usd,
		scholar_pct, payout_currency, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (username, season_id) DO UPDATE SET
		season_start      = EXCLUDED.season_start,
		season_end        = EXCLUDED.season_end,
		ranked_tokens     = EXCLUDED.ranked_tokens,
		brawl_tokens      = EXCLUDED.brawl_tokens,
		tournament_tokens = EXCLUDED.tournament_tokens,
		entry_fees_tokens = EXCLUDED.entry_fees_tokens,
		ranked_usd        = EXCLUDED.ranked_usd,
		brawl_usd         = EXCLUDED.brawl_usd,
		tournament_usd    = EXCLUDED.tournament_usd,
		entry_fees_usd    = EXCLUDED.entry_fees_usd,
		overall_usd       = EXCLUDED.overall_usd,
		scholar_pct       = EXCLUDED.scholar_pct,
		payout_currency   = EXCLUDED.payout_currency,
		updated_at        = EXCLUDED.updated_at
`

const selectSeason = `
	SELECT id, username, season_id, season_start, season_end,
		ranked_tokens, brawl_tokens, tournament_tokens, entry_fees_tokens,
		ranked_usd, brawl_usd, tournament_usd, entry_fees_usd, overall_usd,
		scholar_pct, payout_currency, updated_at
	FROM season_records
`

// SaveSeason implements Store.SaveSeason.
func (s *PostgresStore) SaveSeason(ctx context.Context, rec SeasonRecord) error {
	if err := validate(&rec); err != nil {
		return err
	}
	tokens := make([][]byte, 0, 4)
	for _, c := range []map[string]float64{rec.Ranked.TokenAmounts, rec.Brawl.TokenAmounts, rec.Tournament.TokenAmounts, rec.EntryFees.TokenAmounts} {
		if c == nil {
			c = map[string]float64{}
		}
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode token amounts: %w", err)
		}
		tokens = append(tokens, b)
	}

	_, err := s.pool.Exec(ctx, upsertSeason,
		rec.ID, rec.Username, rec.SeasonID, rec.SeasonStart, rec.SeasonEnd,
		tokens[0], tokens[1], tokens[2], tokens[3],
		rec.Ranked.USD, rec.Brawl.USD, rec.Tournament.USD, rec.EntryFees.USD, rec.OverallUSD,
		rec.ScholarPct, rec.PayoutCurrency, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert season record: %w", err)
	}
	metrics.RecordRecordSaved()
	return nil
}

// SeasonHistory implements Store.SeasonHistory.
func (s *PostgresStore) SeasonHistory(ctx context.Context, username string) ([]SeasonRecord, error) {
	rows, err := s.pool.Query(ctx, selectSeason+` WHERE username = $1 ORDER BY season_id DESC`, normalizeUser(username))
	if err != nil {
		return nil, fmt.Errorf("query season history: %w", err)
	}
	defer rows.Close()

	var out []SeasonRecord
	for rows.Next() {
		rec, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season history: %w", err)
	}
	return out, nil
}

// Latest implements Store.Latest.
func (s *PostgresStore) Latest(ctx context.Context, username string) (SeasonRecord, error) {
	row := s.pool.QueryRow(ctx, selectSeason+` WHERE username = $1 ORDER BY season_id DESC LIMIT 1`, normalizeUser(username))
	rec, err := scanSeason(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SeasonRecord{}, ErrNotFound
		}
		return SeasonRecord{}, fmt.Errorf("get latest season: %w", err)
	}
	return rec, nil
}

// UpdateCurrency implements Store.UpdateCurrency.
func (s *PostgresStore) UpdateCurrency(ctx context.Context, username string, seasonID int, currency string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE season_records SET payout_currency = $3, updated_at = now() WHERE username = $1 AND season_id = $2`,
		normalizeUser(username), seasonID, currency)
	if err != nil {
		return fmt.Errorf("update payout currency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count implements Store.Count. Query failures count as zero.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM season_records`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanSeason(row pgx.Row) (SeasonRecord, error) {
	var (
		rec                          SeasonRecord
		ranked, brawl, tourney, fees []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Username, &rec.SeasonID, &rec.SeasonStart, &rec.SeasonEnd,
		&ranked, &brawl, &tourney, &fees,
		&rec.Ranked.USD, &rec.Brawl.USD, &rec.Tournament.USD, &rec.EntryFees.USD, &rec.OverallUSD,
		&rec.ScholarPct, &rec.PayoutCurrency, &rec.UpdatedAt,
	)
	if err != nil {
		return SeasonRecord{}, err
	}
	for _, pair := range []struct {
		raw []byte
		dst *map[string]float64
	}{
		{ranked, &rec.Ranked.TokenAmounts},
		{brawl, &rec.Brawl.TokenAmounts},
		{tourney, &rec.Tournament.TokenAmounts},
		{fees, &rec.EntryFees.TokenAmounts},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return SeasonRecord{}, fmt.Errorf("decode token amounts: %w", err)
		}
	}
	rec.SeasonStart = rec.SeasonStart.UTC()
	rec.SeasonEnd = rec.SeasonEnd.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
