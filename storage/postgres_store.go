package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"unitcost/models"
)

// PostgresStore reads units and daily unit states from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS units (
			id            TEXT PRIMARY KEY,
			project       TEXT          NOT NULL DEFAULT '',
			nominal_price BIGINT        NOT NULL,
			area_m2       NUMERIC(10,2) NOT NULL DEFAULT 0,
			bedrooms      INTEGER       NOT NULL DEFAULT -1,
			zone          VARCHAR(32)   NOT NULL,
			amenities     TEXT[]        NOT NULL DEFAULT '{}',
			status        VARCHAR(16)   NOT NULL DEFAULT 'active',
			listed_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			parking_price BIGINT        NOT NULL DEFAULT 0,
			storage_price BIGINT        NOT NULL DEFAULT 0,
			hoa_fee       BIGINT        NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS unit_daily_states (
			unit_id  TEXT        NOT NULL,
			day      DATE        NOT NULL,
			status   VARCHAR(16) NOT NULL,
			price    BIGINT      NOT NULL,
			PRIMARY KEY (unit_id, day)
		);

		CREATE INDEX IF NOT EXISTS idx_units_zone   ON units(zone);
		CREATE INDEX IF NOT EXISTS idx_units_status ON units(status);
	`)
	return err
}

// FetchUnits returns the stored units matching filter. Rows with a zone
// outside the known set are skipped.
func (ps *PostgresStore) FetchUnits(ctx context.Context, filter UnitFilter) ([]models.Unit, error) {
	query := `
		SELECT id, project, nominal_price, area_m2, bedrooms, zone, amenities, status,
		       listed_at, parking_price, storage_price, hoa_fee
		FROM units`
	var conds []string
	var args []interface{}
	if filter.Zone != "" {
		args = append(args, string(filter.Zone))
		conds = append(conds, fmt.Sprintf("zone = $%d", len(args)))
	}
	if filter.ActiveOnly {
		args = append(args, string(models.StatusActive))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch units: %w: %w", ErrDataUnavailable, err)
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		var (
			u         models.Unit
			zone      string
			status    string
			amenities pq.StringArray
		)
		if err := rows.Scan(
			&u.ID, &u.Project, &u.NominalPrice, &u.AreaM2, &u.Bedrooms, &zone, &amenities,
			&status, &u.ListedAt, &u.ParkingPrice, &u.StoragePrice, &u.HOAFee,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan unit: %w: %w", ErrDataUnavailable, err)
		}
		u.Zone = models.Zone(zone)
		if !u.Zone.Valid() {
			continue
		}
		u.Status = models.Status(status)
		u.Amenities = []string(amenities)
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate units: %w: %w", ErrDataUnavailable, err)
	}
	return units, nil
}

// FetchPreviousDayStates returns the states recorded for the day before day.
func (ps *PostgresStore) FetchPreviousDayStates(ctx context.Context, day time.Time) (map[string]models.PriorState, error) {
	prev := day.AddDate(0, 0, -1).Format(time.DateOnly)
	rows, err := ps.db.QueryContext(ctx,
		`SELECT unit_id, status, price FROM unit_daily_states WHERE day = $1`, prev)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch states: %w: %w", ErrDataUnavailable, err)
	}
	defer rows.Close()

	states := make(map[string]models.PriorState)
	for rows.Next() {
		var id, status string
		var price int64
		if err := rows.Scan(&id, &status, &price); err != nil {
			return nil, fmt.Errorf("postgres: scan state: %w: %w", ErrDataUnavailable, err)
		}
		states[id] = models.PriorState{Status: models.Status(status), Price: models.Money(price)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate states: %w: %w", ErrDataUnavailable, err)
	}
	return states, nil
}

// UpsertUnits stores scraped units, updating price and status of known ones.
func (ps *PostgresStore) UpsertUnits(ctx context.Context, units []models.Unit) error {
	const batchSize = 50
	for i := 0; i < len(units); i += batchSize {
		end := i + batchSize
		if end > len(units) {
			end = len(units)
		}
		if err := ps.upsertBatch(ctx, units[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) upsertBatch(ctx context.Context, batch []models.Unit) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, u := range batch {
		ph := make([]string, cols)
		for c := range ph {
			ph[c] = fmt.Sprintf("$%d", idx*cols+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		listedAt := u.ListedAt
		if listedAt.IsZero() {
			listedAt = time.Now()
		}
		valueArgs = append(valueArgs,
			u.ID, u.Project, int64(u.NominalPrice), u.AreaM2, u.Bedrooms, string(u.Zone),
			pq.Array(u.Amenities), string(u.Status), listedAt,
			int64(u.ParkingPrice), int64(u.StoragePrice), int64(u.HOAFee))
	}

	query := fmt.Sprintf(`
		INSERT INTO units (id, project, nominal_price, area_m2, bedrooms, zone, amenities,
		                   status, listed_at, parking_price, storage_price, hoa_fee)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			nominal_price = EXCLUDED.nominal_price,
			status        = EXCLUDED.status,
			parking_price = EXCLUDED.parking_price,
			storage_price = EXCLUDED.storage_price,
			hoa_fee       = EXCLUDED.hoa_fee
	`, strings.Join(valueStrings, ","))

	if _, err := ps.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert units: %w", err)
	}
	return nil
}

// MarkMissingWithdrawn flags every active unit whose ID is not in seen as
// withdrawn and returns how many were flagged. seen must be the complete
// inventory of a listing portal.
func (ps *PostgresStore) MarkMissingWithdrawn(ctx context.Context, seen []string) (int, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT id FROM units WHERE status = $1`, string(models.StatusActive))
	if err != nil {
		return 0, fmt.Errorf("postgres: fetch active ids: %w", err)
	}
	var active []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("postgres: scan active id: %w", err)
		}
		active = append(active, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("postgres: iterate active ids: %w", err)
	}

	missing := missingIDs(active, seen)
	if len(missing) == 0 {
		return 0, nil
	}
	if _, err := ps.db.ExecContext(ctx,
		`UPDATE units SET status = $1 WHERE id = ANY($2)`,
		string(models.StatusWithdrawn), pq.Array(missing)); err != nil {
		return 0, fmt.Errorf("postgres: mark withdrawn: %w", err)
	}
	return len(missing), nil
}

// missingIDs returns the IDs of active that are absent from seen, in order.
func missingIDs(active, seen []string) []string {
	present := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range active {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// RecordStates stores the current state of every unit under day, so the next
// day's snapshot can compare against it.
func (ps *PostgresStore) RecordStates(ctx context.Context, units []models.Unit, day time.Time) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unit_daily_states (unit_id, day, status, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (unit_id, day) DO UPDATE SET status = EXCLUDED.status, price = EXCLUDED.price
	`)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	d := day.Format(time.DateOnly)
	for _, u := range units {
		if _, err := stmt.ExecContext(ctx, u.ID, d, string(u.Status), int64(u.NominalPrice)); err != nil {
			return fmt.Errorf("postgres: record state %s: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
