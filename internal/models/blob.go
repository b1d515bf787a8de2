package models

import (
	"time"

	"gorm.io/datatypes"
)

// BoardBlob is one persisted key of the board state.
type BoardBlob struct {
	Key       string         `gorm:"column:blob_key;primaryKey;size:128" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName pins the table used for board state.
func (BoardBlob) TableName() string {
	return "board_blobs"
}
