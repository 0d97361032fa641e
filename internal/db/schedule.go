package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/models"
)

// ScheduleRepository handles database operations for schedules, their
// items and alternates, filler presets and watermarks
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a new schedule into the database
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	result := r.db.WithContext(ctx).Create(schedule)
	if result.Error != nil {
		return fmt.Errorf("failed to create schedule: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a schedule by its UUID
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	var schedule models.Schedule
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&schedule)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &schedule, nil
}

// List retrieves all schedules ordered by name
func (r *ScheduleRepository) List(ctx context.Context) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	result := r.db.WithContext(ctx).Order("name ASC").Find(&schedules)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", MapGormError(result.Error))
	}
	return schedules, nil
}

// SetActive flips the active flag on a schedule
func (r *ScheduleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("id = ?", id.String()).
		Updates(map[string]interface{}{"active": active, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update schedule: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a schedule by its UUID (cascade to items and alternates)
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Schedule{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateItem inserts a schedule item
func (r *ScheduleRepository) CreateItem(ctx context.Context, item *models.ScheduleItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create schedule item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetBaseItems retrieves the unconditional item list ordered by position
func (r *ScheduleRepository) GetBaseItems(ctx context.Context, scheduleID uuid.UUID) ([]*models.ScheduleItem, error) {
	var items []*models.ScheduleItem
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND alternate_id IS NULL", scheduleID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get schedule items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// GetAlternateItems retrieves an alternate's item list ordered by position
func (r *ScheduleRepository) GetAlternateItems(ctx context.Context, alternateID uuid.UUID) ([]*models.ScheduleItem, error) {
	var items []*models.ScheduleItem
	result := r.db.WithContext(ctx).
		Where("alternate_id = ?", alternateID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get alternate items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// CreateAlternate inserts a schedule alternate
func (r *ScheduleRepository) CreateAlternate(ctx context.Context, alternate *models.ScheduleAlternate) error {
	result := r.db.WithContext(ctx).Create(alternate)
	if result.Error != nil {
		return fmt.Errorf("failed to create schedule alternate: %w", MapGormError(result.Error))
	}
	return nil
}

// GetAlternates retrieves all alternates for a schedule. Ordering by
// priority descending then id ascending makes alternate selection (and
// its tie-break) deterministic straight from the query.
func (r *ScheduleRepository) GetAlternates(ctx context.Context, scheduleID uuid.UUID) ([]*models.ScheduleAlternate, error) {
	var alternates []*models.ScheduleAlternate
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID.String()).
		Order("priority DESC, id ASC").
		Find(&alternates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get schedule alternates: %w", MapGormError(result.Error))
	}
	return alternates, nil
}

// Filler presets

// CreateFillerPreset inserts a filler preset
func (r *ScheduleRepository) CreateFillerPreset(ctx context.Context, preset *models.FillerPreset) error {
	result := r.db.WithContext(ctx).Create(preset)
	if result.Error != nil {
		return fmt.Errorf("failed to create filler preset: %w", MapGormError(result.Error))
	}
	return nil
}

// GetFillerPreset retrieves a filler preset by its UUID
func (r *ScheduleRepository) GetFillerPreset(ctx context.Context, id uuid.UUID) (*models.FillerPreset, error) {
	var preset models.FillerPreset
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&preset)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &preset, nil
}

// Watermarks

// CreateWatermark inserts a watermark
func (r *ScheduleRepository) CreateWatermark(ctx context.Context, watermark *models.Watermark) error {
	result := r.db.WithContext(ctx).Create(watermark)
	if result.Error != nil {
		return fmt.Errorf("failed to create watermark: %w", MapGormError(result.Error))
	}
	return nil
}

// GetWatermark retrieves a watermark by its UUID
func (r *ScheduleRepository) GetWatermark(ctx context.Context, id uuid.UUID) (*models.Watermark, error) {
	var watermark models.Watermark
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&watermark)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &watermark, nil
}
