// Package store persists the latest snapshot to a local sqlite database
// so a restarted process has something to show before its first refresh
// completes. The in-memory snapshot stays authoritative; this is only a
// warm-start cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marcin-skalski/prwatch/internal/aggregate"
	"github.com/marcin-skalski/prwatch/internal/github"
)

// gormLogger routes GORM's log output through slog.
type gormLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{logger: l.logger, level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level < logger.Info {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.logger.Error("query failed", "err", err, "duration", elapsed, "sql", sql, "rows", rows)
		return
	}
	l.logger.Debug("query", "duration", elapsed, "sql", sql, "rows", rows)
}

// Store caches the latest snapshot in sqlite.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the cache database with WAL mode enabled.
func Open(dbPath string, log *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: &gormLogger{logger: log, level: logger.Silent},
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if err := db.AutoMigrate(&cachedPull{}, &snapshotMeta{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveSnapshot replaces the cached snapshot wholesale in one transaction.
func (s *Store) SaveSnapshot(snap aggregate.Snapshot) error {
	rows := make([]cachedPull, 0, len(snap.Pulls))
	for i, pr := range snap.Pulls {
		rows = append(rows, cachedPull{
			ID:          pr.ID,
			Number:      pr.Number,
			Title:       pr.Title,
			State:       string(pr.State),
			Draft:       pr.Draft,
			RepoOwner:   pr.RepoOwner,
			RepoName:    pr.RepoName,
			Author:      pr.Author,
			AvatarURL:   pr.AvatarURL,
			Comments:    pr.Comments,
			URL:         pr.URL,
			PROpenedAt:  pr.CreatedAt,
			PRUpdatedAt: pr.UpdatedAt,
			Position:    i,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cachedPull{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return err
			}
		}
		meta := snapshotMeta{ID: 1, RefreshedAt: snap.RefreshedAt, Truncated: snap.Truncated}
		return tx.Save(&meta).Error
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot, or false when the cache is
// empty (fresh install, or never refreshed successfully).
func (s *Store) LoadSnapshot() (aggregate.Snapshot, bool, error) {
	var meta snapshotMeta
	err := s.db.First(&meta, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return aggregate.Snapshot{}, false, nil
	}
	if err != nil {
		return aggregate.Snapshot{}, false, fmt.Errorf("load snapshot meta: %w", err)
	}

	var rows []cachedPull
	if err := s.db.Order("position").Find(&rows).Error; err != nil {
		return aggregate.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	pulls := make([]github.PullRequest, 0, len(rows))
	for _, row := range rows {
		pulls = append(pulls, github.PullRequest{
			ID:        row.ID,
			Number:    row.Number,
			Title:     row.Title,
			State:     github.State(row.State),
			Draft:     row.Draft,
			RepoOwner: row.RepoOwner,
			RepoName:  row.RepoName,
			Author:    row.Author,
			AvatarURL: row.AvatarURL,
			Comments:  row.Comments,
			URL:       row.URL,
			CreatedAt: row.PROpenedAt,
			UpdatedAt: row.PRUpdatedAt,
		})
	}

	return aggregate.Snapshot{
		Pulls:       pulls,
		RefreshedAt: meta.RefreshedAt,
		Truncated:   meta.Truncated,
	}, true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
