package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

// defaultPageSize matches the category browse endpoint's page size when the
// client does not ask for one.
const defaultPageSize = 3

type categoryFinder interface {
	FindByUUID(ctx context.Context, id uuid.UUID) (*models.EventCategory, error)
}

type imagesRepository interface {
	FindByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, includeDeleted bool) ([]models.Image, error)
	SoftDeleteByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64) error
}

type imageDecorator interface {
	DecorateImages(ctx context.Context, images []media.ImageDTO) []media.ImageDTO
}

// Service exposes event management. Writes run the entity upsert and the
// image diff inside one transaction.
type Service interface {
	Create(ctx context.Context, input CreateEventInput) (*EventDTO, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*EventDTO, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*EventListDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEventInput) (*EventDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams packages the dependencies of the event service.
type ServiceParams struct {
	DB         *db.Client
	Categories categoryFinder
	Images     imagesRepository
	Reconciler media.Reconciler
	Decorator  imageDecorator
}

type service struct {
	db         *db.Client
	categories categoryFinder
	images     imagesRepository
	reconciler media.Reconciler
	decorator  imageDecorator
}

// NewService builds an event service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Categories == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "category repository required")
	}
	if params.Images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "image repository required")
	}
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "image reconciler required")
	}
	if params.Decorator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "image decorator required")
	}
	return &service{
		db:         params.DB,
		categories: params.Categories,
		images:     params.Images,
		reconciler: params.Reconciler,
		decorator:  params.Decorator,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateEventInput) (*EventDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := validateDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	status := enums.EventStatusDraft
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event status")
		}
		status = *input.Status
	}

	category, err := s.loadCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       title,
		Description: input.Description,
		Status:      status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CategoryID:  category.ID,
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create event")
		}
		return s.reconciler.Attach(ctx, tx, enums.OwnerTypeEvent, event.ID, toImageRefs(input.Images))
	})
	if txErr != nil {
		return nil, txErr
	}

	event.Category = category
	return s.withImages(ctx, event)
}

func (s *service) GetByUUID(ctx context.Context, id uuid.UUID) (*EventDTO, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, event)
}

func (s *service) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*EventListDTO, error) {
	category, err := s.loadCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	rows, nextCursor, err := NewRepository(s.db.DB()).ListByCategory(ctx, category.ID, params, defaultPageSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list events")
	}

	items := make([]EventDTO, 0, len(rows))
	for i := range rows {
		dto, err := s.withImages(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *dto)
	}
	return &EventListDTO{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateEventInput) (*EventDTO, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		event.Title = title
	}
	if input.Description != nil {
		event.Description = input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event status")
		}
		event.Status = *input.Status
	}
	if input.StartDate != nil {
		event.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		event.EndDate = *input.EndDate
	}
	if err := validateDates(event.StartDate, event.EndDate); err != nil {
		return nil, err
	}
	if input.Capacity != nil {
		event.Capacity = input.Capacity
	}
	if input.PriceCents != nil {
		event.PriceCents = input.PriceCents
	}
	if input.CategoryID != nil {
		category, err := s.loadCategory(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		event.CategoryID = category.ID
		event.Category = category
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).Save(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save event")
		}
		// An absent images field means the client did not touch the set.
		if input.Images == nil {
			return nil
		}
		return s.reconciler.Reconcile(ctx, tx, enums.OwnerTypeEvent, event.ID, toImageRefs(*input.Images))
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.withImages(ctx, event)
}

// Delete tombstones the event together with its images.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).SoftDelete(ctx, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete event")
		}
		if err := s.images.SoftDeleteByOwner(ctx, tx, enums.OwnerTypeEvent, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete event images")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := NewRepository(s.db.DB()).FindByUUID(ctx, id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	return event, nil
}

func (s *service) loadCategory(ctx context.Context, id uuid.UUID) (*models.EventCategory, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	category, err := s.categories.FindByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return category, nil
}

func (s *service) withImages(ctx context.Context, event *models.Event) (*EventDTO, error) {
	rows, err := s.images.FindByOwner(ctx, nil, enums.OwnerTypeEvent, event.ID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event images")
	}
	dto := FromModel(event)
	dto.Images = s.decorator.DecorateImages(ctx, media.ImagesFromModels(rows))
	return dto, nil
}

func validateDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_date and end_date are required")
	}
	if start.After(end) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_date must not be after end_date")
	}
	return nil
}

func toImageRefs(items []ImageRefInput) []media.ImageRef {
	refs := make([]media.ImageRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, media.ImageRef{Bucket: item.Bucket, FileKey: item.FileKey})
	}
	return refs
}
