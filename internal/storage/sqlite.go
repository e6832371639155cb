// Package storage persists classification decisions and user feedback in
// SQLite and serves the per-product history consumed by the confidence
// assessor.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tradewind/tariffflow/internal/common"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// feedbackWindow caps how many ratings a history lookup returns.
const feedbackWindow = 20

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (or creates) the decision database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveDecision persists one classification decision together with a
// snapshot of the product it was made for.
func (s *SQLiteStorage) SaveDecision(ctx context.Context, requestID string, product model.Product, decision model.ClassificationDecision) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(requestID, "requestID"); err != nil {
		return err
	}
	if decision.HSCode.IsEmpty() {
		return fmt.Errorf("%w: decision has no HS code", common.ErrValidationFailed)
	}

	appliedRules, err := json.Marshal(decision.AppliedRules)
	if err != nil {
		return fmt.Errorf("failed to encode applied rules: %w", err)
	}
	flags, err := json.Marshal(decision.Flags)
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			request_id, product_hash, description, category,
			origin_country, destination_country, value,
			hs_code, confidence, source, source_name, disposition,
			reasoning, applied_rules, flags, requires_review,
			auto_approved, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		product.Hash(),
		product.Description,
		product.Category,
		product.OriginCountry,
		product.DestinationCountry,
		nullableFloat(product.Value),
		string(decision.HSCode),
		decision.Confidence,
		string(decision.Source),
		decision.SourceName,
		string(decision.Disposition),
		decision.Reasoning,
		string(appliedRules),
		string(flags),
		decision.RequiresReview,
		decision.AutoApproved,
		decision.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// GetRecentClassifications returns up to limit prior classifications of the
// product, newest first.
func (s *SQLiteStorage) GetRecentClassifications(ctx context.Context, productKey string, limit int) ([]model.PriorClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productKey, "productKey"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hs_code, confidence, decided_at
		FROM decisions
		WHERE product_hash = ?
		ORDER BY decided_at DESC, id DESC
		LIMIT ?`,
		productKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prior []model.PriorClassification
	for rows.Next() {
		var p model.PriorClassification
		var code string
		if err := rows.Scan(&code, &p.Confidence, &p.ClassifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		p.HSCode = model.HSCode(code)
		prior = append(prior, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classifications: %w", err)
	}
	return prior, nil
}

// GetFeedbackRatings returns the most recent user ratings for the product,
// newest first.
func (s *SQLiteStorage) GetFeedbackRatings(ctx context.Context, productKey string) ([]service.FeedbackRating, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productKey, "productKey"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rating, rated_at
		FROM feedback
		WHERE product_hash = ?
		ORDER BY rated_at DESC, id DESC
		LIMIT ?`,
		productKey, feedbackWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ratings []service.FeedbackRating
	for rows.Next() {
		var r service.FeedbackRating
		if err := rows.Scan(&r.Rating, &r.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return ratings, nil
}

// SaveFeedback records one 1-5 rating of a past classification.
func (s *SQLiteStorage) SaveFeedback(ctx context.Context, productKey string, rating int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(productKey, "productKey"); err != nil {
		return err
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", common.ErrValidationFailed, rating)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (product_hash, rating, rated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)`,
		productKey, rating)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
