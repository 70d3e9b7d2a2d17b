package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

var (
	// ErrPriorityExists indicates the section is already ranked in the application.
	ErrPriorityExists = errors.New("section already present in application")
	// ErrPriorityAtTop indicates the section already holds priority 1.
	ErrPriorityAtTop = errors.New("priority already at maximum")
	// ErrAdjacentPriorityMissing indicates no row holds the rank directly above the section.
	ErrAdjacentPriorityMissing = errors.New("adjacent priority not found")
	// ErrApplicationNotDraft indicates the application left draft status before the lock was taken.
	ErrApplicationNotDraft = errors.New("application is not a draft")
)

// PriorityRepository maintains the dense 1..N ranking of sections inside an application.
// Every mutation runs in its own transaction holding a row lock on the application, so
// concurrent mutations of one application are serialized. Mutations only apply to drafts.
type PriorityRepository interface {
	Append(ctx context.Context, applicationID, sectionID uint) (models.Priority, error)
	Remove(ctx context.Context, applicationID, sectionID uint) error
	Promote(ctx context.Context, applicationID, sectionID uint) error
	ListByApplication(ctx context.Context, applicationID uint) ([]models.Priority, error)
	Count(ctx context.Context, applicationID uint) (int64, error)
}

type priorityRepository struct {
	db *gorm.DB
}

// NewPriorityRepository instantiates a GORM-backed priority repository.
func NewPriorityRepository(db *gorm.DB) PriorityRepository {
	return &priorityRepository{db: db}
}

// withDraftLock runs fn inside a transaction after locking the application row. It returns
// gorm.ErrRecordNotFound when the application does not exist and ErrApplicationNotDraft
// when it is no longer a draft.
func (r *priorityRepository) withDraftLock(ctx context.Context, applicationID uint, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&application, applicationID).Error; err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusDraft {
			return ErrApplicationNotDraft
		}
		return fn(tx)
	})
}

func (r *priorityRepository) Append(ctx context.Context, applicationID, sectionID uint) (models.Priority, error) {
	var created models.Priority
	err := r.withDraftLock(ctx, applicationID, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Priority{}).
			Where("application_id = ? AND section_id = ?", applicationID, sectionID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrPriorityExists
		}

		var total int64
		if err := tx.Model(&models.Priority{}).
			Where("application_id = ?", applicationID).
			Count(&total).Error; err != nil {
			return err
		}

		created = models.Priority{
			ApplicationID: applicationID,
			SectionID:     sectionID,
			Priority:      int(total) + 1,
		}
		if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPriorityExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Priority{}, err
	}

	return created, nil
}

func (r *priorityRepository) Remove(ctx context.Context, applicationID, sectionID uint) error {
	return r.withDraftLock(ctx, applicationID, func(tx *gorm.DB) error {
		target, err := findPriority(tx, applicationID, sectionID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.Priority{}, target.ID).Error; err != nil {
			return err
		}

		return tx.Model(&models.Priority{}).
			Where("application_id = ? AND priority > ?", applicationID, target.Priority).
			UpdateColumn("priority", gorm.Expr("priority - ?", 1)).Error
	})
}

func (r *priorityRepository) Promote(ctx context.Context, applicationID, sectionID uint) error {
	return r.withDraftLock(ctx, applicationID, func(tx *gorm.DB) error {
		target, err := findPriority(tx, applicationID, sectionID)
		if err != nil {
			return err
		}
		if target.Priority <= 1 {
			return ErrPriorityAtTop
		}

		var above models.Priority
		if err := tx.Where("application_id = ? AND priority = ?", applicationID, target.Priority-1).
			First(&above).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAdjacentPriorityMissing
			}
			return err
		}

		if err := tx.Model(&models.Priority{}).Where("id = ?", target.ID).
			UpdateColumn("priority", above.Priority).Error; err != nil {
			return err
		}
		return tx.Model(&models.Priority{}).Where("id = ?", above.ID).
			UpdateColumn("priority", target.Priority).Error
	})
}

// ListByApplication returns the rows ordered by rank with their sections loaded, including
// rows whose section has since been soft-deleted.
func (r *priorityRepository) ListByApplication(ctx context.Context, applicationID uint) ([]models.Priority, error) {
	var priorities []models.Priority
	if err := r.db.WithContext(ctx).
		Preload("Section").
		Where("application_id = ?", applicationID).
		Order("priority ASC").
		Find(&priorities).Error; err != nil {
		return nil, err
	}

	return priorities, nil
}

func (r *priorityRepository) Count(ctx context.Context, applicationID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Priority{}).
		Where("application_id = ?", applicationID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func findPriority(tx *gorm.DB, applicationID, sectionID uint) (models.Priority, error) {
	var priority models.Priority
	if err := tx.Where("application_id = ? AND section_id = ?", applicationID, sectionID).
		First(&priority).Error; err != nil {
		return models.Priority{}, err
	}
	return priority, nil
}
