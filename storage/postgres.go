package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"joreca_dedup/models"
)

// PostgresStore mirrors SQLiteStore for hosted deployments where several
// consumers read the same result tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT,
		url TEXT UNIQUE,
		price INTEGER,
		city TEXT,
		postal_code TEXT,
		listing_type TEXT,
		property_type TEXT,
		rooms INTEGER,
		surface DOUBLE PRECISION,
		agency_or_private TEXT,
		description TEXT,
		scraped_at TIMESTAMPTZ DEFAULT NOW(),
		is_duplicate BOOLEAN DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS dedup_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		listings_total INTEGER,
		listings_valid INTEGER,
		rejected INTEGER,
		clusters_total INTEGER,
		duplicate_sets INTEGER,
		block_warnings INTEGER,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS dedup_clusters (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES dedup_runs(id),
		canonical_id TEXT NOT NULL,
		confidence DOUBLE PRECISION,
		size INTEGER
	);

	CREATE TABLE IF NOT EXISTS cluster_members (
		cluster_id BIGINT NOT NULL REFERENCES dedup_clusters(id),
		listing_id TEXT NOT NULL,
		PRIMARY KEY (cluster_id, listing_id)
	);

	CREATE TABLE IF NOT EXISTS pair_evidence (
		id BIGSERIAL PRIMARY KEY,
		cluster_id BIGINT NOT NULL REFERENCES dedup_clusters(id),
		listing_a TEXT NOT NULL,
		listing_b TEXT NOT NULL,
		score DOUBLE PRECISION,
		city_match BOOLEAN,
		price_closeness DOUBLE PRECISION,
		surface_closeness DOUBLE PRECISION,
		room_match BOOLEAN,
		text_similarity DOUBLE PRECISION
	);

	CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source);
	CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);
	CREATE INDEX IF NOT EXISTS idx_clusters_run ON dedup_clusters(run_id);
	CREATE INDEX IF NOT EXISTS idx_members_listing ON cluster_members(listing_id);
	CREATE INDEX IF NOT EXISTS idx_evidence_cluster ON pair_evidence(cluster_id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const upsertListingSQL = `
	INSERT INTO listings (id, source, title, url, price, city, postal_code, listing_type,
		property_type, rooms, surface, agency_or_private, description, scraped_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE SET
		source = EXCLUDED.source,
		title = EXCLUDED.title,
		url = EXCLUDED.url,
		price = EXCLUDED.price,
		city = EXCLUDED.city,
		postal_code = EXCLUDED.postal_code,
		listing_type = EXCLUDED.listing_type,
		property_type = EXCLUDED.property_type,
		rooms = EXCLUDED.rooms,
		surface = EXCLUDED.surface,
		agency_or_private = EXCLUDED.agency_or_private,
		description = EXCLUDED.description`

func (s *PostgresStore) UpsertListing(ctx context.Context, l *models.Listing) error {
	_, err := s.pool.Exec(ctx, upsertListingSQL,
		l.ID, l.Source, l.Title, l.URL, l.Price, l.City, l.PostalCode, l.Kind,
		l.PropertyType, l.Rooms, l.Surface, l.AgencyOrPrivate, l.Description, l.ScrapedAt)
	return err
}

func (s *PostgresStore) UpsertListings(ctx context.Context, listings []*models.Listing) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, l := range listings {
		if _, err := tx.Exec(ctx, upsertListingSQL,
			l.ID, l.Source, l.Title, l.URL, l.Price, l.City, l.PostalCode, l.Kind,
			l.PropertyType, l.Rooms, l.Surface, l.AgencyOrPrivate, l.Description, l.ScrapedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetAllListings(ctx context.Context) ([]*models.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, title, COALESCE(url, ''), price, city, COALESCE(postal_code, ''),
			listing_type, COALESCE(property_type, ''), rooms, surface,
			COALESCE(agency_or_private, ''), COALESCE(description, ''), scraped_at
		FROM listings ORDER BY scraped_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ID, &l.Source, &l.Title, &l.URL, &l.Price, &l.City, &l.PostalCode,
			&l.Kind, &l.PropertyType, &l.Rooms, &l.Surface, &l.AgencyOrPrivate,
			&l.Description, &l.ScrapedAt); err != nil {
			return nil, err
		}
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

func (s *PostgresStore) SetDuplicateFlags(ctx context.Context, ids []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE listings SET is_duplicate = FALSE`); err != nil {
		return err
	}
	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE listings SET is_duplicate = TRUE WHERE id = ANY($1)`, ids); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) CreateDedupRun(ctx context.Context, run *models.DedupRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dedup_runs (id, started_at, status, listings_total, listings_valid,
			rejected, clusters_total, duplicate_sets, block_warnings, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.StartedAt, run.Status, run.ListingsTotal, run.ListingsValid,
		run.Rejected, run.ClustersTotal, run.DuplicateSets, run.BlockWarnings, run.ErrorMessage)
	return err
}

func (s *PostgresStore) UpdateDedupRun(ctx context.Context, run *models.DedupRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE dedup_runs SET finished_at = $1, status = $2, listings_total = $3, listings_valid = $4,
			rejected = $5, clusters_total = $6, duplicate_sets = $7, block_warnings = $8, error_message = $9
		WHERE id = $10`,
		run.FinishedAt, run.Status, run.ListingsTotal, run.ListingsValid,
		run.Rejected, run.ClustersTotal, run.DuplicateSets, run.BlockWarnings, run.ErrorMessage, run.ID)
	return err
}

func (s *PostgresStore) SaveClusters(ctx context.Context, runID string, summaries []models.EvidenceSummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, summary := range summaries {
		var clusterID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO dedup_clusters (run_id, canonical_id, confidence, size)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			runID, summary.CanonicalID, summary.Confidence, len(summary.Members)).Scan(&clusterID)
		if err != nil {
			return err
		}

		for _, member := range summary.Members {
			if _, err := tx.Exec(ctx, `
				INSERT INTO cluster_members (cluster_id, listing_id) VALUES ($1, $2)`,
				clusterID, member); err != nil {
				return err
			}
		}

		for _, pair := range summary.Pairs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO pair_evidence (cluster_id, listing_a, listing_b, score,
					city_match, price_closeness, surface_closeness, room_match, text_similarity)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				clusterID, pair.Pair.A, pair.Pair.B, pair.Score,
				pair.Features.CityMatch, pair.Features.PriceCloseness, pair.Features.SurfaceCloseness,
				pair.Features.RoomMatch, pair.Features.TextSimilarity); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetLatestRun(ctx context.Context) (*models.DedupRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, status, listings_total, listings_valid,
			rejected, clusters_total, duplicate_sets, block_warnings, error_message
		FROM dedup_runs ORDER BY started_at DESC LIMIT 1`)

	var run models.DedupRun
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.ListingsTotal,
		&run.ListingsValid, &run.Rejected, &run.ClustersTotal, &run.DuplicateSets,
		&run.BlockWarnings, &run.ErrorMessage)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
