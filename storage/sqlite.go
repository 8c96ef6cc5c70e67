package storage

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"joreca_dedup/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
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
		surface REAL,
		agency_or_private TEXT,
		description TEXT,
		scraped_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		is_duplicate BOOLEAN DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS dedup_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
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
		id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		canonical_id TEXT NOT NULL,
		confidence REAL,
		size INTEGER,
		FOREIGN KEY (run_id) REFERENCES dedup_runs(id)
	);

	CREATE TABLE IF NOT EXISTS cluster_members (
		cluster_id INTEGER NOT NULL,
		listing_id TEXT NOT NULL,
		PRIMARY KEY (cluster_id, listing_id),
		FOREIGN KEY (cluster_id) REFERENCES dedup_clusters(id)
	);

	CREATE TABLE IF NOT EXISTS pair_evidence (
		id INTEGER PRIMARY KEY,
		cluster_id INTEGER NOT NULL,
		listing_a TEXT NOT NULL,
		listing_b TEXT NOT NULL,
		score REAL,
		city_match BOOLEAN,
		price_closeness REAL,
		surface_closeness REAL,
		room_match BOOLEAN,
		text_similarity REAL,
		FOREIGN KEY (cluster_id) REFERENCES dedup_clusters(id)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source);
	CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);
	CREATE INDEX IF NOT EXISTS idx_clusters_run ON dedup_clusters(run_id);
	CREATE INDEX IF NOT EXISTS idx_members_listing ON cluster_members(listing_id);
	CREATE INDEX IF NOT EXISTS idx_evidence_cluster ON pair_evidence(cluster_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) UpsertListing(ctx context.Context, l *models.Listing) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (id, source, title, url, price, city, postal_code, listing_type,
			property_type, rooms, surface, agency_or_private, description, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			url = excluded.url,
			price = excluded.price,
			city = excluded.city,
			postal_code = excluded.postal_code,
			listing_type = excluded.listing_type,
			property_type = excluded.property_type,
			rooms = excluded.rooms,
			surface = excluded.surface,
			agency_or_private = excluded.agency_or_private,
			description = excluded.description`,
		l.ID, l.Source, l.Title, nullString(l.URL), l.Price, l.City, nullString(l.PostalCode), l.Kind,
		l.PropertyType, l.Rooms, l.Surface, l.AgencyOrPrivate, l.Description, l.ScrapedAt)
	return err
}

func (s *SQLiteStore) UpsertListings(ctx context.Context, listings []*models.Listing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, l := range listings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO listings (id, source, title, url, price, city, postal_code, listing_type,
				property_type, rooms, surface, agency_or_private, description, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source = excluded.source,
				title = excluded.title,
				url = excluded.url,
				price = excluded.price,
				city = excluded.city,
				postal_code = excluded.postal_code,
				listing_type = excluded.listing_type,
				property_type = excluded.property_type,
				rooms = excluded.rooms,
				surface = excluded.surface,
				agency_or_private = excluded.agency_or_private,
				description = excluded.description`,
			l.ID, l.Source, l.Title, nullString(l.URL), l.Price, l.City, nullString(l.PostalCode), l.Kind,
			l.PropertyType, l.Rooms, l.Surface, l.AgencyOrPrivate, l.Description, l.ScrapedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetAllListings(ctx context.Context) ([]*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, title, url, price, city, postal_code, listing_type,
			property_type, rooms, surface, agency_or_private, description, scraped_at
		FROM listings ORDER BY scraped_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var l models.Listing
		var url, postal, propType, agency, desc sql.NullString
		var price, roomsVal sql.NullInt64
		var surface sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.Source, &l.Title, &url, &price, &l.City, &postal, &l.Kind,
			&propType, &roomsVal, &surface, &agency, &desc, &l.ScrapedAt); err != nil {
			return nil, err
		}
		l.URL = url.String
		l.PostalCode = postal.String
		l.PropertyType = propType.String
		l.AgencyOrPrivate = agency.String
		l.Description = desc.String
		if price.Valid {
			v := int(price.Int64)
			l.Price = &v
		}
		if roomsVal.Valid {
			v := int(roomsVal.Int64)
			l.Rooms = &v
		}
		if surface.Valid {
			v := surface.Float64
			l.Surface = &v
		}
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

// SetDuplicateFlags marks the given listings as exact duplicates and clears
// the flag everywhere else.
func (s *SQLiteStore) SetDuplicateFlags(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE listings SET is_duplicate = FALSE`); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE listings SET is_duplicate = TRUE WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateDedupRun(ctx context.Context, run *models.DedupRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dedup_runs (id, started_at, status, listings_total, listings_valid,
			rejected, clusters_total, duplicate_sets, block_warnings, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Status, run.ListingsTotal, run.ListingsValid,
		run.Rejected, run.ClustersTotal, run.DuplicateSets, run.BlockWarnings, run.ErrorMessage)
	return err
}

func (s *SQLiteStore) UpdateDedupRun(ctx context.Context, run *models.DedupRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE dedup_runs SET finished_at = ?, status = ?, listings_total = ?, listings_valid = ?,
			rejected = ?, clusters_total = ?, duplicate_sets = ?, block_warnings = ?, error_message = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsTotal, run.ListingsValid,
		run.Rejected, run.ClustersTotal, run.DuplicateSets, run.BlockWarnings, run.ErrorMessage, run.ID)
	return err
}

// SaveClusters replaces nothing: each run owns its own cluster rows, so
// history stays queryable per run.
func (s *SQLiteStore) SaveClusters(ctx context.Context, runID string, summaries []models.EvidenceSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, summary := range summaries {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO dedup_clusters (run_id, canonical_id, confidence, size)
			VALUES (?, ?, ?, ?)`,
			runID, summary.CanonicalID, summary.Confidence, len(summary.Members))
		if err != nil {
			return err
		}
		clusterID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for _, member := range summary.Members {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cluster_members (cluster_id, listing_id) VALUES (?, ?)`,
				clusterID, member); err != nil {
				return err
			}
		}

		for _, pair := range summary.Pairs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO pair_evidence (cluster_id, listing_a, listing_b, score,
					city_match, price_closeness, surface_closeness, room_match, text_similarity)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				clusterID, pair.Pair.A, pair.Pair.B, pair.Score,
				pair.Features.CityMatch, pair.Features.PriceCloseness, pair.Features.SurfaceCloseness,
				pair.Features.RoomMatch, pair.Features.TextSimilarity); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetLatestRun(ctx context.Context) (*models.DedupRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, listings_total, listings_valid,
			rejected, clusters_total, duplicate_sets, block_warnings, error_message
		FROM dedup_runs ORDER BY started_at DESC LIMIT 1`)

	var run models.DedupRun
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Status, &run.ListingsTotal,
		&run.ListingsValid, &run.Rejected, &run.ClustersTotal, &run.DuplicateSets,
		&run.BlockWarnings, &run.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
