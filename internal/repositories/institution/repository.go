// Package institution reads the canonical institution registry table. The
// registry is owned by an external service; clover only loads a read-only
// snapshot and never writes back. The matcher never touches this package
// directly; it works from an immutable snapshot loaded once per session.
package institution

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository loads canonical institutions
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new institution repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns every canonical institution, the registry snapshot source.
func (r *Repository) List(ctx context.Context) ([]models.CanonicalInstitution, error) {
	ctx, span := tracing.StartSpan(ctx, "institution.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "state", "address", "previous_name")
	sb.From("canonical_institutions")
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	start := time.Now()
	var institutions []models.CanonicalInstitution
	err := r.db.SelectContext(ctx, &institutions, query, args...)
	metrics.RecordDatabaseQuery("institution.list", time.Since(start).Seconds())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list canonical institutions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list canonical institutions")
	}

	return institutions, nil
}
