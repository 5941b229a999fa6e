package store

import (
	"context"
	"errors"

	"github.com/mwantia/mediaindex/pkg/db/models"
)

// ErrNotFound is returned when a lookup matches no record
var ErrNotFound = errors.New("store: record not found")

// RebaseFunc rewrites the derived fields of an item that moved to newPath.
type RebaseFunc func(item *models.Item, newPath string)

// IndexStore defines the interface for index database operations
type IndexStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Item lookups
	GetItem(ctx context.Context, id uint) (*models.Item, error)
	GetItemByPath(ctx context.Context, path string) (*models.Item, error)
	GetItemByName(ctx context.Context, parentID *uint, filename string) (*models.Item, error)
	FindFolder(ctx context.Context, relativeDirectory string) (*models.Item, error)
	ListChildren(ctx context.Context, parentID *uint) ([]models.Item, error)
	CountItems(ctx context.Context) (int64, error)

	// Item mutations
	GetOrCreateItem(ctx context.Context, item *models.Item) (*models.Item, bool, error)
	RefreshItem(ctx context.Context, item *models.Item) error
	RenameItem(ctx context.Context, oldPath, newPath string, rebase RebaseFunc) (*models.Item, error)
	DeleteItemByPath(ctx context.Context, path string) (int64, error)
	DeleteSubtree(ctx context.Context, path string) (int64, error)

	// Scan run operations
	CreateScanRun(ctx context.Context, run *models.ScanRun) error
	UpdateScanRun(ctx context.Context, run *models.ScanRun) error
	ListScanRuns(ctx context.Context, limit int) ([]models.ScanRun, error)
}
