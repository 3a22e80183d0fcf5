package registrants

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores registrants in Postgres.
type PostgresRepository struct {
	db     querier
	tracer trace.Tracer
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("registrants: pgx pool required")
	}
	return newPostgresRepository(pool)
}

func newPostgresRepository(db querier) *PostgresRepository {
	return &PostgresRepository{db: db, tracer: otel.Tracer("raffle.internal.registrants")}
}

// Save inserts the registrant, or refreshes the stored row when the customer
// registers again.
func (r *PostgresRepository) Save(ctx context.Context, req SaveRequest) (*Registrant, error) {
	ctx, span := r.tracer.Start(ctx, "registrants.save")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO registrants (id, customer_id, mobile, age, name, is_returning)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id) DO UPDATE
		SET mobile = EXCLUDED.mobile,
		    age = EXCLUDED.age,
		    name = EXCLUDED.name,
		    is_returning = EXCLUDED.is_returning,
		    updated_at = now()
		RETURNING id, created_at
	`
	var (
		id        string
		createdAt time.Time
	)
	if err := r.db.QueryRow(ctx, query,
		uuid.New().String(),
		req.CustomerID,
		req.Mobile,
		req.Age,
		req.Name,
		req.Returning,
	).Scan(&id, &createdAt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("registrants: upsert failed: %w", err)
	}

	return &Registrant{
		ID:         id,
		CustomerID: req.CustomerID,
		Mobile:     req.Mobile,
		Age:        req.Age,
		Name:       req.Name,
		Returning:  req.Returning,
		CreatedAt:  createdAt,
	}, nil
}
