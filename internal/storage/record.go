package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"radar/internal/model"
)

type RecordStorage struct {
	db *sqlx.DB
}

type dbRecord struct {
	ID     int64  `db:"id"`
	Title  string `db:"titulo"`
	Link   string `db:"link"`
	SentAt string `db:"data_envio"`
}

func NewRecordStorage(db *sqlx.DB) *RecordStorage {
	return &RecordStorage{
		db: db,
	}
}

// Exists reports whether an article with this link was already sent.
func (s *RecordStorage) Exists(ctx context.Context, link string) (bool, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var count int

	if err := conn.GetContext(
		ctx,
		&count,
		s.db.Rebind(`SELECT COUNT(*) FROM historico WHERE link = ?`),
		link,
	); err != nil {
		return false, fmt.Errorf("lookup %s: %w", link, err)
	}

	return count > 0, nil
}

// Store inserts the record. data_envio is filled in by the database.
func (s *RecordStorage) Store(ctx context.Context, record model.Record) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(
		ctx,
		s.db.Rebind(`INSERT INTO historico (titulo, link) VALUES (?, ?)`),
		record.Title,
		record.Link,
	); err != nil {
		return fmt.Errorf("insert %s: %w", record.Link, err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (s *RecordStorage) Recent(ctx context.Context, limit uint64) ([]model.Record, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var records []dbRecord

	if err := conn.SelectContext(
		ctx,
		&records,
		s.db.Rebind(`SELECT id, titulo, link, data_envio FROM historico ORDER BY data_envio DESC, id DESC LIMIT ?`),
		limit,
	); err != nil {
		return nil, err
	}

	return lo.Map(records, func(record dbRecord, _ int) model.Record {
		return model.Record{
			ID:     record.ID,
			Title:  record.Title,
			Link:   record.Link,
			SentAt: parseTime(record.SentAt),
		}
	}), nil
}

// Ping checks that the database is reachable.
func (s *RecordStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}
