package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

// SectionFilter narrows the section catalog.
type SectionFilter struct {
	Title string
}

// SectionRepository defines persistence operations for the section catalog.
type SectionRepository interface {
	List(ctx context.Context, filter SectionFilter) ([]models.Section, error)
	GetByID(ctx context.Context, id uint) (models.Section, error)
	GetActive(ctx context.Context, id uint) (models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	SoftDelete(ctx context.Context, id uint) error
}

type sectionRepository struct {
	db *gorm.DB
}

// NewSectionRepository instantiates a GORM-backed section repository.
func NewSectionRepository(db *gorm.DB) SectionRepository {
	return &sectionRepository{db: db}
}

func (r *sectionRepository) List(ctx context.Context, filter SectionFilter) ([]models.Section, error) {
	query := r.db.WithContext(ctx).Model(&models.Section{}).Where("is_deleted = ?", false)

	if title := strings.TrimSpace(filter.Title); title != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%")
	}

	var sections []models.Section
	if err := query.Order("date ASC").Order("id ASC").Find(&sections).Error; err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *sectionRepository) GetByID(ctx context.Context, id uint) (models.Section, error) {
	var section models.Section
	if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return models.Section{}, err
	}

	return section, nil
}

// GetActive returns gorm.ErrRecordNotFound for soft-deleted sections.
func (r *sectionRepository) GetActive(ctx context.Context, id uint) (models.Section, error) {
	var section models.Section
	if err := r.db.WithContext(ctx).Where("is_deleted = ?", false).First(&section, id).Error; err != nil {
		return models.Section{}, err
	}

	return section, nil
}

func (r *sectionRepository) Create(ctx context.Context, section *models.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *sectionRepository) Update(ctx context.Context, section *models.Section) error {
	return r.db.WithContext(ctx).Save(section).Error
}

func (r *sectionRepository) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Section{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
