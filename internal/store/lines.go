package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
)

// FindLine loads a line of the tenant with its pattern in position order. A
// line of another tenant is reported as not found.
func FindLine(tx *gorm.DB, tenantID, lineID int64) (*model.Line, error) {
	var line model.Line
	err := tx.Preload("Pattern", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Where("id = ? AND tenant_id = ?", lineID, tenantID).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithIDs(apperr.CodeLineNotFound, fmt.Sprintf("line %d not found", lineID), lineID)
		}
		return nil, fmt.Errorf("failed to load line %d: %w", lineID, err)
	}
	return &line, nil
}

// SaveLineState persists the lifecycle columns of a line.
func SaveLineState(tx *gorm.DB, line *model.Line) error {
	err := tx.Model(line).
		Select("state", "is_running", "start_date", "end_date").
		Updates(line).Error
	if err != nil {
		return fmt.Errorf("failed to update line %d: %w", line.ID, err)
	}
	return nil
}
