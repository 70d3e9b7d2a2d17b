package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

// ErrStatusChanged indicates the application left the expected status before the write landed.
var ErrStatusChanged = errors.New("application status changed concurrently")

// ApplicationFilter narrows submitted application listings.
type ApplicationFilter struct {
	UserID        *uint
	Status        string
	ApplyDateFrom *time.Time
	ApplyDateTo   *time.Time
}

// ApplicationTransition lists the columns written by a status change.
type ApplicationTransition struct {
	Status           string
	ApplyDate        *time.Time
	EndDate          *time.Time
	ModeratorID      *uint
	NumberOfSections *int
}

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	GetOrCreateDraft(ctx context.Context, userID uint, now time.Time) (models.Application, error)
	FindDraft(ctx context.Context, userID uint) (models.Application, error)
	GetByID(ctx context.Context, id uint) (models.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error)
	UpdateFullName(ctx context.Context, id uint, fullName string) error
	Transition(ctx context.Context, id uint, from string, change ApplicationTransition) error
	Decide(ctx context.Context, id uint, change ApplicationTransition, classrooms map[uint]string) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository instantiates a GORM-backed application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// GetOrCreateDraft relies on the partial unique index over (user_id) WHERE status = 'draft':
// a racing insert is dropped by ON CONFLICT DO NOTHING and the winner's row is read back.
func (r *applicationRepository) GetOrCreateDraft(ctx context.Context, userID uint, now time.Time) (models.Application, error) {
	draft, err := r.FindDraft(ctx, userID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Application{}, err
	}

	candidate := models.Application{
		Status:       models.ApplicationStatusDraft,
		CreationDate: now,
		UserID:       userID,
	}
	if err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&candidate).Error; err != nil {
		return models.Application{}, err
	}

	return r.FindDraft(ctx, userID)
}

func (r *applicationRepository) FindDraft(ctx context.Context, userID uint) (models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.ApplicationStatusDraft).
		First(&application).Error; err != nil {
		return models.Application{}, err
	}

	return application, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Moderator").
		First(&application, id).Error; err != nil {
		return models.Application{}, err
	}

	return application, nil
}

// List never returns drafts or deleted applications.
func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{}).
		Preload("User").
		Preload("Moderator").
		Where("status NOT IN ?", []string{models.ApplicationStatusDraft, models.ApplicationStatusDeleted})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ApplyDateFrom != nil {
		query = query.Where("apply_date >= ?", *filter.ApplyDateFrom)
	}
	if filter.ApplyDateTo != nil {
		query = query.Where("apply_date < ?", *filter.ApplyDateTo)
	}

	var applications []models.Application
	if err := query.Order("apply_date DESC").Order("id DESC").Find(&applications).Error; err != nil {
		return nil, err
	}

	return applications, nil
}

func (r *applicationRepository) UpdateFullName(ctx context.Context, id uint, fullName string) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		Update("full_name", fullName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Transition applies change only while the application is still in status from.
func (r *applicationRepository) Transition(ctx context.Context, id uint, from string, change ApplicationTransition) error {
	return transition(r.db.WithContext(ctx), id, from, change)
}

// Decide moves a created application to its final status and stores the classroom of each
// priority row (keyed by priority id) in one transaction.
func (r *applicationRepository) Decide(ctx context.Context, id uint, change ApplicationTransition, classrooms map[uint]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, id, models.ApplicationStatusCreated, change); err != nil {
			return err
		}

		for priorityID, classroom := range classrooms {
			if err := tx.Model(&models.Priority{}).
				Where("id = ? AND application_id = ?", priorityID, id).
				Update("classroom", classroom).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func transition(db *gorm.DB, id uint, from string, change ApplicationTransition) error {
	values := map[string]interface{}{"status": change.Status}
	if change.ApplyDate != nil {
		values["apply_date"] = *change.ApplyDate
	}
	if change.EndDate != nil {
		values["end_date"] = *change.EndDate
	}
	if change.ModeratorID != nil {
		values["moderator_id"] = *change.ModeratorID
	}
	if change.NumberOfSections != nil {
		values["number_of_sections"] = *change.NumberOfSections
	}

	result := db.Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}
