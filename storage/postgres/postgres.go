package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nbfhomes/listings/instrumentation"
	"github.com/nbfhomes/listings/storage"
)

// propertyColumns is the select list shared by every listing query. Nullable
// text columns are coalesced so rows scan into plain strings.
const propertyColumns = `id, handle, title, description, currency_code,
	price_range, seo, featured_image, images, options, variants, tags,
	available_for_sale, COALESCE(user_id, ''), COALESCE(contact_number, ''),
	COALESCE(category_id, ''), created_at`

// Store is a PostgreSQL implementation of all storage interfaces.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	inst   *instrumentation.Instrumentation
}

// Compile-time interface checks.
var (
	_ storage.PropertyStore   = (*Store)(nil)
	_ storage.CollectionStore = (*Store)(nil)
	_ storage.UserStore       = (*Store)(nil)
	_ storage.AdminStore      = (*Store)(nil)
	_ storage.Store           = (*Store)(nil)
)

// New connects a pool to connURL and verifies the connection.
func New(ctx context.Context, connURL string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// SetInstrumentation attaches observability. Call before serving traffic.
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.inst = inst
}

// observe records one storage operation's outcome and duration.
func (s *Store) observe(ctx context.Context, op string, start time.Time, err error) {
	if s.inst == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("error", err != nil),
	)
	s.inst.Metrics().StorageOperationTotal.Add(ctx, 1, attrs)
	s.inst.Metrics().StorageOperationDuration.Record(ctx,
		float64(time.Since(start).Microseconds())/1000.0, attrs)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// List returns listings matching filter, ordered by sort.
func (s *Store) List(ctx context.Context, filter storage.PropertyFilter, srt storage.Sort, limit int) (result []*storage.Property, err error) {
	defer func(start time.Time) { s.observe(ctx, "list", start, err) }(time.Now())

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AvailableOnly {
		conds = append(conds, "available_for_sale")
	}
	if filter.Query != "" {
		p := arg(filter.Query)
		conds = append(conds, fmt.Sprintf("(title ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
	}
	if filter.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("(price_range -> 'minVariantPrice' ->> 'amount')::numeric >= %s", arg(*filter.MinPrice)))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("(price_range -> 'minVariantPrice' ->> 'amount')::numeric <= %s", arg(*filter.MaxPrice)))
	}
	for _, needle := range tagNeedles(filter) {
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE '%%' || %s || '%%')", arg(needle)))
	}

	query := "SELECT " + propertyColumns + " FROM properties"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + orderClause(srt)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %s", arg(limit))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// tagNeedles collapses the tag-matched filter fields into one list.
func tagNeedles(filter storage.PropertyFilter) []string {
	var needles []string
	if filter.Location != "" {
		needles = append(needles, filter.Location)
	}
	if filter.PropertyType != "" {
		needles = append(needles, filter.PropertyType)
	}
	return append(needles, filter.Amenities...)
}

// orderClause maps a sort to SQL. The zero Sort and SortRelevance both order
// newest first.
func orderClause(srt storage.Sort) string {
	dir := "ASC"
	if srt.Reverse {
		dir = "DESC"
	}
	switch srt.Key {
	case storage.SortPrice:
		return "(price_range -> 'minVariantPrice' ->> 'amount')::numeric " + dir
	case storage.SortCreatedAt:
		return "created_at " + dir
	default:
		return "created_at DESC, id DESC"
	}
}

// GetByHandle retrieves one available listing by handle.
func (s *Store) GetByHandle(ctx context.Context, handle string) (p *storage.Property, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_by_handle", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE handle = $1 AND available_for_sale",
		handle)
	return scanProperty(row)
}

// ListByUser retrieves every listing owned by userID, available or not.
func (s *Store) ListByUser(ctx context.Context, userID string) (result []*storage.Property, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_by_user", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings by user: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// ListByTitleKeywords retrieves available listings whose title contains any
// of the keywords.
func (s *Store) ListByTitleKeywords(ctx context.Context, keywords []string) (result []*storage.Property, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_by_keywords", start, err) }(time.Now())

	query := "SELECT " + propertyColumns + " FROM properties WHERE available_for_sale"
	var args []any
	if len(keywords) > 0 {
		likes := make([]string, len(keywords))
		for i, kw := range keywords {
			args = append(args, kw)
			likes[i] = fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", len(args))
		}
		query += " AND (" + strings.Join(likes, " OR ") + ")"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings by keywords: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// Insert stores a new listing.
func (s *Store) Insert(ctx context.Context, p *storage.Property) (err error) {
	defer func(start time.Time) { s.observe(ctx, "insert", start, err) }(time.Now())

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO properties (
			id, handle, title, description, currency_code, price_range, seo,
			featured_image, images, options, variants, tags,
			available_for_sale, user_id, contact_number, category_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID, p.Handle, p.Title, p.Description, p.CurrencyCode, p.PriceRange,
		p.SEO, p.FeaturedImage, p.Images, p.Options, p.Variants, p.Tags,
		p.AvailableForSale, p.UserID, p.ContactNumber, p.CategoryID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}

	s.logger.Debug("inserted listing", "id", p.ID, "handle", p.Handle)
	return nil
}

// Update replaces the mutable fields of an owned listing.
func (s *Store) Update(ctx context.Context, id, ownerID string, p *storage.Property) (updated *storage.Property, err error) {
	defer func(start time.Time) { s.observe(ctx, "update", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx, `
		UPDATE properties SET
			title = $3, description = $4, category_id = $5, seo = $6,
			featured_image = $7, images = $8, variants = $9, tags = $10,
			price_range = $11, contact_number = $12
		WHERE id = $1 AND user_id = $2
		RETURNING `+propertyColumns,
		id, ownerID, p.Title, p.Description, p.CategoryID, p.SEO,
		p.FeaturedImage, p.Images, p.Variants, p.Tags, p.PriceRange,
		p.ContactNumber)
	return scanProperty(row)
}

// Delete removes an owned listing.
func (s *Store) Delete(ctx context.Context, id, ownerID string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete", start, err) }(time.Now())

	tag, err := s.pool.Exec(ctx,
		"DELETE FROM properties WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AdminDelete removes a listing regardless of ownership.
func (s *Store) AdminDelete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "admin_delete", start, err) }(time.Now())

	tag, err := s.pool.Exec(ctx, "DELETE FROM properties WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetAvailability toggles a listing's availability.
func (s *Store) SetAvailability(ctx context.Context, id string, available bool) (p *storage.Property, err error) {
	defer func(start time.Time) { s.observe(ctx, "set_availability", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx,
		"UPDATE properties SET available_for_sale = $2 WHERE id = $1 RETURNING "+propertyColumns,
		id, available)
	return scanProperty(row)
}

// AdminList returns one page of the administrative view plus the total
// number of matching listings.
func (s *Store) AdminList(ctx context.Context, filter storage.AdminFilter) (result []*storage.Property, total int, err error) {
	defer func(start time.Time) { s.observe(ctx, "admin_list", start, err) }(time.Now())

	var (
		conds []string
		args  []any
	)
	if filter.Search != "" {
		args = append(args, filter.Search)
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%' OR contact_number ILIKE '%%' || %s || '%%')",
			p, p, p))
	}
	switch filter.Status {
	case "active":
		conds = append(conds, "available_for_sale")
	case "inactive":
		conds = append(conds, "NOT available_for_sale")
	}

	query := "SELECT " + propertyColumns + ", count(*) OVER() FROM properties"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	args = append(args, filter.Page.Size)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Page.Offset())
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query admin listing view: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p storage.Property
		if err := rows.Scan(
			&p.ID, &p.Handle, &p.Title, &p.Description, &p.CurrencyCode,
			&p.PriceRange, &p.SEO, &p.FeaturedImage, &p.Images, &p.Options,
			&p.Variants, &p.Tags, &p.AvailableForSale, &p.UserID,
			&p.ContactNumber, &p.CategoryID, &p.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan listing: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read listings: %w", err)
	}
	return result, total, nil
}

// Stats returns aggregate listing counts.
func (s *Store) Stats(ctx context.Context) (stats *storage.MarketStats, err error) {
	defer func(start time.Time) { s.observe(ctx, "stats", start, err) }(time.Now())

	stats = &storage.MarketStats{}
	err = s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE available_for_sale),
		       count(DISTINCT user_id) FILTER (WHERE user_id IS NOT NULL AND user_id <> '')
		FROM properties`).Scan(&stats.Total, &stats.Active, &stats.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}

// OwnerStats aggregates per-owner listing counts across all listings.
func (s *Store) OwnerStats(ctx context.Context) (result []*storage.OwnerStats, err error) {
	defer func(start time.Time) { s.observe(ctx, "owner_stats", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT user_id,
		       COALESCE(min(contact_number) FILTER (WHERE contact_number IS NOT NULL AND contact_number <> ''), 'N/A'),
		       count(*),
		       count(*) FILTER (WHERE available_for_sale)
		FROM properties
		WHERE user_id IS NOT NULL AND user_id <> ''
		GROUP BY user_id
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st storage.OwnerStats
		if err := rows.Scan(&st.UserID, &st.ContactNumber, &st.TotalProperties, &st.ActiveProperties); err != nil {
			return nil, fmt.Errorf("failed to scan owner stats: %w", err)
		}
		result = append(result, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read owner stats: %w", err)
	}
	return result, nil
}

// ListCollections returns all collections.
func (s *Store) ListCollections(ctx context.Context) (result []*storage.Collection, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_collections", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx,
		"SELECT id, handle, title, description, path, updated_at FROM collections ORDER BY handle")
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c storage.Collection
		if err := rows.Scan(&c.ID, &c.Handle, &c.Title, &c.Description, &c.Path, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collections: %w", err)
	}
	return result, nil
}

// GetCollection retrieves one collection by handle.
func (s *Store) GetCollection(ctx context.Context, handle string) (c *storage.Collection, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_collection", start, err) }(time.Now())

	c = &storage.Collection{}
	err = s.pool.QueryRow(ctx,
		"SELECT id, handle, title, description, path, updated_at FROM collections WHERE handle = $1",
		handle).Scan(&c.ID, &c.Handle, &c.Title, &c.Description, &c.Path, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	return c, nil
}

// GetUserStatus returns the local account status for userID.
func (s *Store) GetUserStatus(ctx context.Context, userID string) (status string, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_user_status", start, err) }(time.Now())

	err = s.pool.QueryRow(ctx,
		"SELECT status FROM users WHERE id = $1", userID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user status: %w", err)
	}
	return status, nil
}

// IsAdmin reports whether userID is on the administrator allow-list.
func (s *Store) IsAdmin(ctx context.Context, userID string) (isAdmin bool, err error) {
	defer func(start time.Time) { s.observe(ctx, "is_admin", start, err) }(time.Now())

	err = s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)", userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to query admin allow-list: %w", err)
	}
	return isAdmin, nil
}

// scanProperty scans one listing row, mapping pgx.ErrNoRows to ErrNotFound.
func scanProperty(row pgx.Row) (*storage.Property, error) {
	var p storage.Property
	err := row.Scan(
		&p.ID, &p.Handle, &p.Title, &p.Description, &p.CurrencyCode,
		&p.PriceRange, &p.SEO, &p.FeaturedImage, &p.Images, &p.Options,
		&p.Variants, &p.Tags, &p.AvailableForSale, &p.UserID,
		&p.ContactNumber, &p.CategoryID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}
	return &p, nil
}

func scanProperties(rows pgx.Rows) ([]*storage.Property, error) {
	var result []*storage.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return result, nil
}
