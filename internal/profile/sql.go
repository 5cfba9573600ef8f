package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// maxExportLimit is the maximum number of profiles to export at once.
const maxExportLimit = 1000000

// exportVersion is written to and accepted from export files.
const exportVersion = "1.0"

// queries holds the dialect-specific statements of a sqlStore.
type queries struct {
	insert string
	update string
	get    string
	list   string
	count  string
	delete string
}

// sqlStore implements Store over database/sql; the SQLite and PostgreSQL
// stores differ only in their statements.
type sqlStore struct {
	db *sql.DB
	q  queries
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(s scanner) (*Profile, error) {
	p := &Profile{}
	var genes []byte

	if err := s.Scan(&p.ID, &p.Name, &p.Timestamp, &genes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(genes, &p.Genes); err != nil {
		return nil, fmt.Errorf("failed to decode genes: %w", err)
	}
	return p, nil
}

func (s *sqlStore) Create(ctx context.Context, profile *Profile) error {
	if err := profile.prepare(); err != nil {
		return err
	}

	genes, err := json.Marshal(profile.Genes)
	if err != nil {
		return fmt.Errorf("failed to encode genes: %w", err)
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, s.q.insert,
		profile.ID, profile.Name, profile.Timestamp, string(genes), now, now,
	); err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	profile.CreatedAt = now
	profile.UpdatedAt = now
	return nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, s.q.get, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (s *sqlStore) Update(ctx context.Context, profile *Profile) error {
	if profile.ID == "" {
		return domain.NewValidationError("id", "id is required", profile.ID)
	}
	if err := profile.prepare(); err != nil {
		return err
	}

	genes, err := json.Marshal(profile.Genes)
	if err != nil {
		return fmt.Errorf("failed to encode genes: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, s.q.update, profile.Name, string(genes), now, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %s: %w", profile.ID, domain.ErrNotFound)
	}

	profile.UpdatedAt = now
	return nil
}

func (s *sqlStore) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, s.q.list, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var result []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *sqlStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, s.q.count).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (s *sqlStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return err
	}

	export := &Export{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(all),
		Profiles:   all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func (s *sqlStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, p := range export.Profiles {
		if p.ID != "" {
			_, err := s.Get(ctx, p.ID)
			if err == nil {
				skipped++
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
			}
		}

		if err := s.Create(ctx, p); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
