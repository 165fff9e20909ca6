package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geocoder_backend/internal/geocoder"
)

const segmentColumns = `
	segment_source_id, street, COALESCE(lower(street_type), ''), COALESCE(upper(street_dir), ''),
	lnumber, hnumber, COALESCE(lcity, ''), COALESCE(rcity, ''),
	x1, y1, x2, y2, xm, ym, has_addresses`

// Repo reads the reference tables from PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new reference repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements geocoder.Reference.
var _ geocoder.Reference = (*Repo)(nil)

// Places returns all places.
func (r *Repo) Places(ctx context.Context) ([]geocoder.Place, error) {
	query := `SELECT code, COALESCE(scode, ''), name, type FROM places`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	items := make([]geocoder.Place, 0)
	for rows.Next() {
		var p geocoder.Place
		if err := rows.Scan(&p.Code, &p.SCode, &p.Name, &p.Type); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		items = append(items, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate places: %w", rows.Err())
	}
	return items, nil
}

// SegmentsByStreet returns segments whose street name matches, ignoring case.
func (r *Repo) SegmentsByStreet(ctx context.Context, street string) ([]geocoder.Segment, error) {
	query := `SELECT ` + segmentColumns + `
		FROM segments
		WHERE lower(street) = lower($1)
		ORDER BY segment_source_id`

	rows, err := r.pool.Query(ctx, query, street)
	if err != nil {
		return nil, fmt.Errorf("list segments by street: %w", err)
	}
	defer rows.Close()

	items := make([]geocoder.Segment, 0)
	for rows.Next() {
		var s geocoder.Segment
		if err := rows.Scan(
			&s.SourceID, &s.Street, &s.StreetType, &s.StreetDir,
			&s.LNumber, &s.HNumber, &s.LCity, &s.RCity,
			&s.X1, &s.Y1, &s.X2, &s.Y2, &s.XM, &s.YM, &s.HasAddresses,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate segments: %w", rows.Err())
	}
	return items, nil
}

// NearestAddress returns the address point on the segment whose number is
// closest to number, or nil when the segment has no address points.
func (r *Repo) NearestAddress(ctx context.Context, segmentSourceID string, number int) (*geocoder.AddressPoint, error) {
	query := `
		SELECT number, segment_source_id, x, y, COALESCE(city, '')
		FROM addresses
		WHERE segment_source_id = $1
		ORDER BY abs(number - $2), number
		LIMIT 1`

	var a geocoder.AddressPoint
	if err := r.pool.QueryRow(ctx, query, segmentSourceID, number).Scan(
		&a.Number, &a.SegmentSourceID, &a.X, &a.Y, &a.City,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("nearest address: %w", err)
	}
	return &a, nil
}

// Intersection returns the node joining both streets in either order.
func (r *Repo) Intersection(ctx context.Context, street1, street2 string) (*geocoder.Node, error) {
	query := `
		SELECT id, street_1, street_2, x, y
		FROM nodes
		WHERE (lower(street_1) = lower($1) AND lower(street_2) = lower($2))
		   OR (lower(street_1) = lower($2) AND lower(street_2) = lower($1))
		ORDER BY id
		LIMIT 1`

	var n geocoder.Node
	if err := r.pool.QueryRow(ctx, query, street1, street2).Scan(
		&n.ID, &n.Street1, &n.Street2, &n.X, &n.Y,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("intersection: %w", err)
	}
	return &n, nil
}

// SemiblockAddresses returns address points on segments matching q.
func (r *Repo) SemiblockAddresses(ctx context.Context, q geocoder.SemiblockQuery) ([]geocoder.AddressPoint, error) {
	whereClause, args := semiblockWhere(q)
	query := fmt.Sprintf(`
		SELECT a.number, a.segment_source_id, a.x, a.y, COALESCE(a.city, '')
		FROM addresses a
		JOIN segments s ON s.segment_source_id = a.segment_source_id
		WHERE %s
		ORDER BY a.segment_source_id, a.number`, whereClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("semiblock addresses: %w", err)
	}
	defer rows.Close()

	items := make([]geocoder.AddressPoint, 0)
	for rows.Next() {
		var a geocoder.AddressPoint
		if err := rows.Scan(&a.Number, &a.SegmentSourceID, &a.X, &a.Y, &a.City); err != nil {
			return nil, fmt.Errorf("scan semiblock address: %w", err)
		}
		items = append(items, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate semiblock addresses: %w", rows.Err())
	}
	return items, nil
}

func semiblockWhere(q geocoder.SemiblockQuery) (string, []interface{}) {
	whereClauses := []string{"lower(s.street) = lower($1)"}
	args := []interface{}{q.Street}
	argIdx := 2

	if q.StreetType != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("lower(s.street_type) = $%d", argIdx))
		args = append(args, strings.ToLower(q.StreetType))
		argIdx++
	}
	if q.City != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(s.lcity = $%d OR s.rcity = $%d)", argIdx, argIdx))
		args = append(args, q.City)
		argIdx++
	}
	if q.Number != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("$%d BETWEEN s.lnumber AND s.hnumber", argIdx))
		args = append(args, *q.Number)
		argIdx++
	}
	if q.RequireAddresses {
		whereClauses = append(whereClauses, "s.has_addresses")
	}

	return strings.Join(whereClauses, " AND "), args
}
