package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/models"
)

// BlockRepository handles database operations for blocks, templates and
// template assignments
type BlockRepository struct {
	db *DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// CreateBlock inserts a block
func (r *BlockRepository) CreateBlock(ctx context.Context, block *models.Block) error {
	result := r.db.WithContext(ctx).Create(block)
	if result.Error != nil {
		return fmt.Errorf("failed to create block: %w", MapGormError(result.Error))
	}
	return nil
}

// GetBlockByID retrieves a block by its UUID
func (r *BlockRepository) GetBlockByID(ctx context.Context, id uuid.UUID) (*models.Block, error) {
	var block models.Block
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&block)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &block, nil
}

// GetBlockItems retrieves a block's content references ordered by position
func (r *BlockRepository) GetBlockItems(ctx context.Context, blockID uuid.UUID) ([]*models.BlockItem, error) {
	var items []*models.BlockItem
	result := r.db.WithContext(ctx).
		Where("block_id = ?", blockID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get block items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// CreateBlockItem inserts a block item
func (r *BlockRepository) CreateBlockItem(ctx context.Context, item *models.BlockItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create block item: %w", MapGormError(result.Error))
	}
	return nil
}

// CreateTemplate inserts a template
func (r *BlockRepository) CreateTemplate(ctx context.Context, template *models.Template) error {
	result := r.db.WithContext(ctx).Create(template)
	if result.Error != nil {
		return fmt.Errorf("failed to create template: %w", MapGormError(result.Error))
	}
	return nil
}

// GetTemplateByID retrieves a template by its UUID
func (r *BlockRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var template models.Template
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&template)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &template, nil
}

// GetTemplateItems retrieves a template's block placements ordered by
// start time, with the Block association populated
func (r *BlockRepository) GetTemplateItems(ctx context.Context, templateID uuid.UUID) ([]*models.TemplateItem, error) {
	var items []*models.TemplateItem
	result := r.db.WithContext(ctx).
		Where("template_id = ?", templateID.String()).
		Order("start_minutes ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get template items: %w", MapGormError(result.Error))
	}

	for _, item := range items {
		block, err := r.GetBlockByID(ctx, item.BlockID)
		if err != nil {
			return nil, fmt.Errorf("failed to load block for template item: %w", err)
		}
		item.Block = block
	}
	return items, nil
}

// CreateTemplateItem inserts a template item
func (r *BlockRepository) CreateTemplateItem(ctx context.Context, item *models.TemplateItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create template item: %w", MapGormError(result.Error))
	}
	return nil
}

// CreateAssignment inserts a template assignment
func (r *BlockRepository) CreateAssignment(ctx context.Context, assignment *models.TemplateAssignment) error {
	result := r.db.WithContext(ctx).Create(assignment)
	if result.Error != nil {
		return fmt.Errorf("failed to create template assignment: %w", MapGormError(result.Error))
	}
	return nil
}

// GetAssignments retrieves all template assignments for a schedule,
// ordered by priority descending then id ascending so selection and
// tie-break are deterministic
func (r *BlockRepository) GetAssignments(ctx context.Context, scheduleID uuid.UUID) ([]*models.TemplateAssignment, error) {
	var assignments []*models.TemplateAssignment
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID.String()).
		Order("priority DESC, id ASC").
		Find(&assignments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get template assignments: %w", MapGormError(result.Error))
	}
	return assignments, nil
}
