package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/models"
)

// DecoRepository handles database operations for decos, deco templates
// and deco assignments
type DecoRepository struct {
	db *DB
}

// NewDecoRepository creates a new deco repository
func NewDecoRepository(db *DB) *DecoRepository {
	return &DecoRepository{db: db}
}

// Create inserts a deco
func (r *DecoRepository) Create(ctx context.Context, deco *models.Deco) error {
	result := r.db.WithContext(ctx).Create(deco)
	if result.Error != nil {
		return fmt.Errorf("failed to create deco: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a deco by its UUID
func (r *DecoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deco, error) {
	var deco models.Deco
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&deco)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &deco, nil
}

// List retrieves all decos ordered by name
func (r *DecoRepository) List(ctx context.Context) ([]*models.Deco, error) {
	var decos []*models.Deco
	result := r.db.WithContext(ctx).Order("name ASC").Find(&decos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list decos: %w", MapGormError(result.Error))
	}
	return decos, nil
}

// CreateTemplate inserts a deco template
func (r *DecoRepository) CreateTemplate(ctx context.Context, template *models.DecoTemplate) error {
	result := r.db.WithContext(ctx).Create(template)
	if result.Error != nil {
		return fmt.Errorf("failed to create deco template: %w", MapGormError(result.Error))
	}
	return nil
}

// GetTemplateItems retrieves a deco template's windows ordered by start
// time, with the Deco association populated
func (r *DecoRepository) GetTemplateItems(ctx context.Context, templateID uuid.UUID) ([]*models.DecoTemplateItem, error) {
	var items []*models.DecoTemplateItem
	result := r.db.WithContext(ctx).
		Where("deco_template_id = ?", templateID.String()).
		Order("start_minutes ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get deco template items: %w", MapGormError(result.Error))
	}

	for _, item := range items {
		deco, err := r.GetByID(ctx, item.DecoID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deco for template item: %w", err)
		}
		item.Deco = deco
	}
	return items, nil
}

// CreateTemplateItem inserts a deco template item
func (r *DecoRepository) CreateTemplateItem(ctx context.Context, item *models.DecoTemplateItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create deco template item: %w", MapGormError(result.Error))
	}
	return nil
}

// CreateAssignment inserts a deco assignment
func (r *DecoRepository) CreateAssignment(ctx context.Context, assignment *models.DecoAssignment) error {
	result := r.db.WithContext(ctx).Create(assignment)
	if result.Error != nil {
		return fmt.Errorf("failed to create deco assignment: %w", MapGormError(result.Error))
	}
	return nil
}

// GetAssignments retrieves all deco assignments for a playout, ordered
// by priority descending then id ascending
func (r *DecoRepository) GetAssignments(ctx context.Context, playoutID uuid.UUID) ([]*models.DecoAssignment, error) {
	var assignments []*models.DecoAssignment
	result := r.db.WithContext(ctx).
		Where("playout_id = ?", playoutID.String()).
		Order("priority DESC, id ASC").
		Find(&assignments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get deco assignments: %w", MapGormError(result.Error))
	}
	return assignments, nil
}
