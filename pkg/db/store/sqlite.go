package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/mediaindex/pkg/db/migrations"
	"github.com/mwantia/mediaindex/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements IndexStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed index store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite only supports 1 writer, which also serializes get-or-create
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs all pending schema migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Item lookups

func (s *SQLiteStore) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *SQLiteStore) GetItemByPath(ctx context.Context, path string) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Where("path = ?", path).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *SQLiteStore) GetItemByName(ctx context.Context, parentID *uint, filename string) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).
		Where("parent_key = ? AND filename = ?", models.ParentKeyOf(parentID), filename).
		First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *SQLiteStore) FindFolder(ctx context.Context, relativeDirectory string) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).
		Where("relative_directory = ? AND kind = ?", relativeDirectory, models.KindFolder).
		First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *SQLiteStore) ListChildren(ctx context.Context, parentID *uint) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Where("parent_key = ?", models.ParentKeyOf(parentID)).
		Order("filename").
		Find(&items).Error
	return items, err
}

func (s *SQLiteStore) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Item{}).Count(&count).Error
	return count, err
}

// Item mutations

// GetOrCreateItem inserts item unless a row with the same (parent, filename)
// already exists. The insert is a conditional insert against the unique index,
// so concurrent callers can never produce two rows for one key.
func (s *SQLiteStore) GetOrCreateItem(ctx context.Context, item *models.Item) (*models.Item, bool, error) {
	var result *models.Item
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			result = item
			created = true
			return nil
		}

		var existing models.Item
		err := tx.Where("parent_key = ? AND filename = ?", models.ParentKeyOf(item.ParentID), item.Filename).
			First(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to load existing item '%s': %w", item.Filename, err)
		}
		result = &existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

// RefreshItem updates the storage derived fields of an existing row:
// kind, extension, size, modification time and content type.
func (s *SQLiteStore) RefreshItem(ctx context.Context, item *models.Item) error {
	res := s.db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Item{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"kind":         item.Kind,
			"extension":    item.Extension,
			"size":         item.Size,
			"modified_at":  item.ModifiedAt,
			"content_type": item.ContentType,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RenameItem moves the row at oldPath and all of its descendants to newPath.
// Rows already occupying newPath are removed first. Returns ErrNotFound if
// no row exists at oldPath.
func (s *SQLiteStore) RenameItem(ctx context.Context, oldPath, newPath string, rebase RebaseFunc) (*models.Item, error) {
	var renamed models.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ?", oldPath).First(&renamed).Error; err != nil {
			return notFound(err)
		}

		if err := subtree(tx, newPath).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("failed to clear destination rows: %w", err)
		}

		var descendants []models.Item
		if err := descendantsOf(tx, oldPath).Find(&descendants).Error; err != nil {
			return fmt.Errorf("failed to load descendants: %w", err)
		}

		rebase(&renamed, newPath)
		if err := tx.Save(&renamed).Error; err != nil {
			return err
		}

		for i := range descendants {
			child := &descendants[i]
			rebase(child, newPath+strings.TrimPrefix(child.Path, oldPath))
			if err := tx.Save(child).Error; err != nil {
				return fmt.Errorf("failed to rebase '%s': %w", child.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &renamed, nil
}

func (s *SQLiteStore) DeleteItemByPath(ctx context.Context, path string) (int64, error) {
	res := s.db.WithContext(ctx).Where("path = ?", path).Delete(&models.Item{})
	return res.RowsAffected, res.Error
}

// DeleteSubtree removes the row at path and every row below it.
func (s *SQLiteStore) DeleteSubtree(ctx context.Context, path string) (int64, error) {
	res := subtree(s.db.WithContext(ctx), path).Delete(&models.Item{})
	return res.RowsAffected, res.Error
}

// Scan run operations

func (s *SQLiteStore) CreateScanRun(ctx context.Context, run *models.ScanRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *SQLiteStore) UpdateScanRun(ctx context.Context, run *models.ScanRun) error {
	return s.db.WithContext(ctx).Save(run).Error
}

func (s *SQLiteStore) ListScanRuns(ctx context.Context, limit int) ([]models.ScanRun, error) {
	var runs []models.ScanRun
	query := s.db.WithContext(ctx).Order("started_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&runs).Error
	return runs, err
}

// subtree matches the row at path and its descendants. substr is used instead
// of LIKE so that '%' and '_' inside file names are not treated as wildcards.
func subtree(tx *gorm.DB, path string) *gorm.DB {
	prefix := path + "/"
	return tx.Where("path = ? OR substr(path, 1, ?) = ?", path, utf8.RuneCountInString(prefix), prefix)
}

func descendantsOf(tx *gorm.DB, path string) *gorm.DB {
	prefix := path + "/"
	return tx.Where("substr(path, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
