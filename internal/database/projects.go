// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgtype"

	"github.com/novadom/novadom/internal/metrics"
	"github.com/novadom/novadom/internal/models"
)

const projectColumns = `p.id, p.developer_id, p.title, p.description, p.location_text, p.city,
	p.neighborhood, p.country, p.project_type, p.status, p.expected_completion_date,
	p.cover_image_url, p.gallery_urls, p.amenities_list,
	ST_Y(p.location_point) AS latitude, ST_X(p.location_point) AS longitude,
	p.created_at, p.updated_at, p.is_active, p.is_verified`

// activeSubscriptionExists gates public listing visibility on the owning
// developer holding an unexpired active subscription.
const activeSubscriptionExists = `EXISTS (
	SELECT 1 FROM subscriptions s
	WHERE s.developer_id = p.developer_id AND s.status = 'active' AND s.end_date > now())`

// ProjectSearch holds search filters and pagination for project listings.
type ProjectSearch struct {
	Search      string
	City        string
	ProjectType string
	Status      string
	DeveloperID int64

	// GateVisibility hides projects whose developer has no active
	// subscription. BypassDeveloperID exempts that developer's own
	// listings from the gate (admins search ungated instead).
	GateVisibility    bool
	BypassDeveloperID int64

	Page    int
	PerPage int
}

// buildProjectSearchWhere renders the WHERE clause and its arguments for a
// search. Split out from SearchProjects so the SQL assembly is testable
// without a live database.
func buildProjectSearchWhere(s ProjectSearch) (string, []interface{}) {
	conds := []string{"p.is_active"}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s.Search != "" {
		ph := arg("%" + s.Search + "%")
		conds = append(conds, fmt.Sprintf(`(p.title ILIKE %[1]s OR p.description ILIKE %[1]s
			OR p.location_text ILIKE %[1]s OR p.city ILIKE %[1]s OR p.neighborhood ILIKE %[1]s)`, ph))
	}
	if s.City != "" {
		conds = append(conds, fmt.Sprintf("p.city = %s", arg(s.City)))
	}
	if s.ProjectType != "" {
		conds = append(conds, fmt.Sprintf("p.project_type = %s::project_type", arg(s.ProjectType)))
	}
	if s.Status != "" {
		conds = append(conds, fmt.Sprintf("p.status = %s::project_status", arg(s.Status)))
	}
	if s.DeveloperID != 0 {
		conds = append(conds, fmt.Sprintf("p.developer_id = %s", arg(s.DeveloperID)))
	}
	if s.GateVisibility {
		gate := activeSubscriptionExists
		if s.BypassDeveloperID != 0 {
			gate = fmt.Sprintf("(%s OR p.developer_id = %s)", gate, arg(s.BypassDeveloperID))
		}
		conds = append(conds, gate)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// SearchProjects returns one page of active projects matching the filters.
func (db *DB) SearchProjects(ctx context.Context, s ProjectSearch) (_ *models.ProjectPage, err error) {
	defer observeQuery("select", "projects")(&err)

	if s.Page < 1 {
		s.Page = 1
	}
	if s.PerPage < 1 {
		s.PerPage = 10
	}

	where, args := buildProjectSearchWhere(s)

	var total int
	err = db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects p `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	limitArgs := append(args, s.PerPage, (s.Page-1)*s.PerPage)
	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM projects p %s ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d`,
		projectColumns, where, len(args)+1, len(args)+2), limitArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}
	defer rows.Close()

	projects, err := collectProjects(rows)
	if err != nil {
		return nil, err
	}

	return &models.ProjectPage{
		Projects:   projects,
		Total:      total,
		Page:       s.Page,
		PerPage:    s.PerPage,
		TotalPages: models.TotalPagesFor(total, s.PerPage),
	}, nil
}

// NearbySearch holds parameters for proximity search around a point.
type NearbySearch struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64

	GateVisibility    bool
	BypassDeveloperID int64

	Page    int
	PerPage int
}

// NearbyProjects returns active projects within the radius, ordered by
// distance. Distances are computed on the geography type so the radius is
// in real meters, and each result carries DistanceKm.
func (db *DB) NearbyProjects(ctx context.Context, n NearbySearch) (_ *models.ProjectPage, err error) {
	defer observeQuery("select", "projects")(&err)
	metrics.DBSpatialQueries.WithLabelValues("nearby").Inc()

	if n.Page < 1 {
		n.Page = 1
	}
	if n.PerPage < 1 {
		n.PerPage = 10
	}

	conds := []string{
		"p.is_active",
		"p.location_point IS NOT NULL",
		"ST_DWithin(p.location_point::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)",
	}
	args := []interface{}{n.Longitude, n.Latitude, n.RadiusKm * 1000}

	if n.GateVisibility {
		gate := activeSubscriptionExists
		if n.BypassDeveloperID != 0 {
			args = append(args, n.BypassDeveloperID)
			gate = fmt.Sprintf("(%s OR p.developer_id = $%d)", gate, len(args))
		}
		conds = append(conds, gate)
	}

	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	err = db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects p `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count nearby projects: %w", err)
	}

	limitArgs := append(args, n.PerPage, (n.Page-1)*n.PerPage)
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s,
		       ST_Distance(p.location_point::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
		FROM projects p %s
		ORDER BY distance_km ASC, p.id ASC
		LIMIT $%d OFFSET $%d`,
		projectColumns, where, len(args)+1, len(args)+2), limitArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to search nearby projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.ProjectPage{
		Projects:   projects,
		Total:      total,
		Page:       n.Page,
		PerPage:    n.PerPage,
		TotalPages: models.TotalPagesFor(total, n.PerPage),
	}, nil
}

// GetProject returns an active project by ID.
func (db *DB) GetProject(ctx context.Context, id int64) (_ *models.Project, err error) {
	defer observeQuery("select", "projects")(&err)

	row := db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.id = $1 AND p.is_active`, id)
	p, err := scanProject(row, false)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// DeveloperHasVisibleListings reports whether the developer passes the
// public visibility gate right now.
func (db *DB) DeveloperHasVisibleListings(ctx context.Context, developerID int64) (_ bool, err error) {
	defer observeQuery("select", "subscriptions")(&err)
	var ok bool
	err = db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions s
			WHERE s.developer_id = $1 AND s.status = 'active' AND s.end_date > now())`,
		developerID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check visibility gate: %w", err)
	}
	return ok, nil
}

// CreateProject inserts a listing for the developer. The PostGIS point is
// set only when both coordinates are present.
func (db *DB) CreateProject(ctx context.Context, p *models.Project) (_ *models.Project, err error) {
	defer observeQuery("insert", "projects")(&err)
	if p.Latitude != nil && p.Longitude != nil {
		metrics.DBSpatialQueries.WithLabelValues("point_write").Inc()
	}

	gallery, amenities, err := marshalProjectLists(p)
	if err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx, `
		INSERT INTO projects (developer_id, title, description, location_text, city, neighborhood,
			country, project_type, status, expected_completion_date, cover_image_url,
			gallery_urls, amenities_list, location_point)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::project_type, $9::project_status, $10, $11,
			$12::jsonb, $13::jsonb,
			CASE WHEN $14::float8 IS NULL OR $15::float8 IS NULL THEN NULL
			     ELSE ST_SetSRID(ST_MakePoint($15, $14), 4326) END)
		RETURNING `+strings.ReplaceAll(projectColumns, "p.", ""),
		p.DeveloperID, p.Title, p.Description, p.LocationText, p.City, p.Neighborhood,
		p.Country, p.ProjectType, p.Status, p.ExpectedCompletionDate, p.CoverImageURL,
		gallery, amenities, p.Latitude, p.Longitude)

	created, err := scanProject(row, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", classify(err))
	}
	return created, nil
}

// ProjectUpdate carries the partial update for a listing; nil fields are
// left untouched. Latitude and Longitude only take effect together.
type ProjectUpdate struct {
	Title                  *string
	Description            *string
	LocationText           *string
	City                   *string
	Neighborhood           *string
	Country                *string
	ProjectType            *string
	Status                 *string
	ExpectedCompletionDate *time.Time
	CoverImageURL          *string
	GalleryURLs            []string
	AmenitiesList          []string
	Latitude               *float64
	Longitude              *float64
	IsActive               *bool
}

// buildProjectUpdateSet renders the SET clause for an update. Returns an
// empty clause when nothing changes.
func buildProjectUpdateSet(u ProjectUpdate) (string, []interface{}, error) {
	var sets []string
	var args []interface{}

	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	setCast := func(col, cast string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d::%s", col, len(args), cast))
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.LocationText != nil {
		set("location_text", *u.LocationText)
	}
	if u.City != nil {
		set("city", *u.City)
	}
	if u.Neighborhood != nil {
		set("neighborhood", *u.Neighborhood)
	}
	if u.Country != nil {
		set("country", *u.Country)
	}
	if u.ProjectType != nil {
		setCast("project_type", "project_type", *u.ProjectType)
	}
	if u.Status != nil {
		setCast("status", "project_status", *u.Status)
	}
	if u.ExpectedCompletionDate != nil {
		set("expected_completion_date", *u.ExpectedCompletionDate)
	}
	if u.CoverImageURL != nil {
		set("cover_image_url", *u.CoverImageURL)
	}
	if u.GalleryURLs != nil {
		b, err := json.Marshal(u.GalleryURLs)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal gallery urls: %w", err)
		}
		setCast("gallery_urls", "jsonb", string(b))
	}
	if u.AmenitiesList != nil {
		b, err := json.Marshal(u.AmenitiesList)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal amenities: %w", err)
		}
		setCast("amenities_list", "jsonb", string(b))
	}
	if u.Latitude != nil && u.Longitude != nil {
		args = append(args, *u.Longitude, *u.Latitude)
		sets = append(sets, fmt.Sprintf(
			"location_point = ST_SetSRID(ST_MakePoint($%d, $%d), 4326)", len(args)-1, len(args)))
	}
	if u.IsActive != nil {
		set("is_active", *u.IsActive)
	}

	if len(sets) == 0 {
		return "", nil, nil
	}
	sets = append(sets, "updated_at = now()")
	return "SET " + strings.Join(sets, ", "), args, nil
}

// UpdateProject applies a partial update to a listing owned by the
// developer. Returns ErrNotFound when the project does not exist, is
// inactive, or belongs to someone else.
func (db *DB) UpdateProject(ctx context.Context, id, developerID int64, u ProjectUpdate) (_ *models.Project, err error) {
	defer observeQuery("update", "projects")(&err)
	if u.Latitude != nil && u.Longitude != nil {
		metrics.DBSpatialQueries.WithLabelValues("point_write").Inc()
	}

	setClause, args, err := buildProjectUpdateSet(u)
	if err != nil {
		return nil, err
	}
	if setClause == "" {
		return db.getOwnedProject(ctx, id, developerID)
	}

	args = append(args, id, developerID)
	row := db.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE projects %s
		WHERE id = $%d AND developer_id = $%d AND is_active
		RETURNING %s`,
		setClause, len(args)-1, len(args), strings.ReplaceAll(projectColumns, "p.", "")), args...)

	p, err := scanProject(row, false)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// SoftDeleteProject deactivates a listing owned by the developer.
func (db *DB) SoftDeleteProject(ctx context.Context, id, developerID int64) (err error) {
	defer observeQuery("update", "projects")(&err)

	tag, err := db.pool.Exec(ctx, `
		UPDATE projects SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND developer_id = $2 AND is_active`,
		id, developerID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveProjects counts a developer's live listings, used to enforce
// the subscription plan listing limit.
func (db *DB) CountActiveProjects(ctx context.Context, developerID int64) (_ int, err error) {
	defer observeQuery("select", "projects")(&err)
	var count int
	err = db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE developer_id = $1 AND is_active`,
		developerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func (db *DB) getOwnedProject(ctx context.Context, id, developerID int64) (*models.Project, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects p
		 WHERE p.id = $1 AND p.developer_id = $2 AND p.is_active`, id, developerID)
	p, err := scanProject(row, false)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func marshalProjectLists(p *models.Project) (string, string, error) {
	if p.GalleryURLs == nil {
		p.GalleryURLs = []string{}
	}
	if p.AmenitiesList == nil {
		p.AmenitiesList = []string{}
	}
	gallery, err := json.Marshal(p.GalleryURLs)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal gallery urls: %w", err)
	}
	amenities, err := json.Marshal(p.AmenitiesList)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal amenities: %w", err)
	}
	return string(gallery), string(amenities), nil
}

func collectProjects(rows interface {
	Next() bool
	Err() error
	Scan(dest ...interface{}) error
}) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// projectScanBuf holds the intermediate scan targets for one project row,
// so plain and joined queries share the same column handling.
type projectScanBuf struct {
	p          models.Project
	completion pgtype.Timestamptz
	gallery    []byte
	amenities  []byte
	lat, lon   pgtype.Float8
	distance   pgtype.Float8
}

func (b *projectScanBuf) dest(withDistance bool) []interface{} {
	dest := []interface{}{
		&b.p.ID, &b.p.DeveloperID, &b.p.Title, &b.p.Description, &b.p.LocationText, &b.p.City,
		&b.p.Neighborhood, &b.p.Country, &b.p.ProjectType, &b.p.Status, &b.completion,
		&b.p.CoverImageURL, &b.gallery, &b.amenities, &b.lat, &b.lon,
		&b.p.CreatedAt, &b.p.UpdatedAt, &b.p.IsActive, &b.p.IsVerified,
	}
	if withDistance {
		dest = append(dest, &b.distance)
	}
	return dest
}

func (b *projectScanBuf) finish() (*models.Project, error) {
	p := b.p

	if b.completion.Status == pgtype.Present {
		t := b.completion.Time
		p.ExpectedCompletionDate = &t
	}
	if b.lat.Status == pgtype.Present && b.lon.Status == pgtype.Present {
		la, lo := b.lat.Float, b.lon.Float
		p.Latitude, p.Longitude = &la, &lo
	}
	if b.distance.Status == pgtype.Present {
		d := b.distance.Float
		p.DistanceKm = &d
	}

	p.GalleryURLs = []string{}
	p.AmenitiesList = []string{}
	if len(b.gallery) > 0 {
		if err := json.Unmarshal(b.gallery, &p.GalleryURLs); err != nil {
			return nil, fmt.Errorf("failed to decode gallery urls: %w", err)
		}
	}
	if len(b.amenities) > 0 {
		if err := json.Unmarshal(b.amenities, &p.AmenitiesList); err != nil {
			return nil, fmt.Errorf("failed to decode amenities: %w", err)
		}
	}

	return &p, nil
}

func scanProject(row rowScanner, withDistance bool) (*models.Project, error) {
	var buf projectScanBuf
	if err := row.Scan(buf.dest(withDistance)...); err != nil {
		return nil, err
	}
	return buf.finish()
}
