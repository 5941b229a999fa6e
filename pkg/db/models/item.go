package models

import (
	"time"

	"gorm.io/gorm"
)

// Kind classifies an indexed entry
type Kind string

const (
	KindUnknown  Kind = ""
	KindCode     Kind = "code"
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindFolder   Kind = "folder"
	KindDocument Kind = "document"
)

// Kinds lists every kind that can be assigned by extension.
var Kinds = []Kind{KindCode, KindImage, KindAudio, KindVideo, KindDocument}

// Item represents one file or folder mirrored from the storage tree.
// Parent relationships are plain keys into the same table.
type Item struct {
	ID       uint  `gorm:"primaryKey"`
	ParentID *uint `gorm:"index"`
	// ParentKey mirrors ParentID with 0 for root-level items, since sqlite
	// treats NULLs as distinct inside unique indexes.
	ParentKey uint   `gorm:"not null;uniqueIndex:idx_parent_filename"`
	Filename  string `gorm:"type:text;not null;uniqueIndex:idx_parent_filename"`

	Path              string `gorm:"type:text;not null;index"`
	RelativeDirectory string `gorm:"type:text;not null;index:idx_relative_kind"`
	URL               string `gorm:"type:text"`
	Extension         string `gorm:"type:text"`
	Kind              Kind   `gorm:"type:text;index:idx_relative_kind"`
	ContentType       string `gorm:"type:text"`

	// File metadata
	Size       *int64
	ModifiedAt *time.Time

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFolder reports whether the item mirrors a storage directory.
func (i *Item) IsFolder() bool {
	return i.Kind == KindFolder
}

// BeforeSave keeps ParentKey aligned with ParentID.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	i.ParentKey = ParentKeyOf(i.ParentID)
	return nil
}

// ParentKeyOf returns the unique-index key for a parent reference.
func ParentKeyOf(parentID *uint) uint {
	if parentID == nil {
		return 0
	}
	return *parentID
}
