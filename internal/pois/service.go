package pois

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

type imagesRepository interface {
	FindByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, includeDeleted bool) ([]models.Image, error)
	SoftDeleteByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64) error
}

type imageDecorator interface {
	DecorateImages(ctx context.Context, images []media.ImageDTO) []media.ImageDTO
}

// Service exposes POI management. Writes run the entity upsert and the image
// diff inside one transaction.
type Service interface {
	Create(ctx context.Context, input CreatePOIInput) (*POIDTO, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*POIDTO, error)
	GetByQRCode(ctx context.Context, code string) (*POIDTO, error)
	List(ctx context.Context, params pagination.Params) (*POIListDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePOIInput) (*POIDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams packages the dependencies of the POI service.
type ServiceParams struct {
	DB         *db.Client
	Images     imagesRepository
	Reconciler media.Reconciler
	Decorator  imageDecorator
}

type service struct {
	db         *db.Client
	images     imagesRepository
	reconciler media.Reconciler
	decorator  imageDecorator
}

// NewService builds a POI service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
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
		images:     params.Images,
		reconciler: params.Reconciler,
		decorator:  params.Decorator,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreatePOIInput) (*POIDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	qrCode := strings.TrimSpace(input.QRCode)
	if qrCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr_code is required")
	}

	poi := &models.POI{
		Name:        name,
		Description: input.Description,
		Status:      enums.POIStatusActive,
		CoordX:      input.CoordX,
		CoordY:      input.CoordY,
		QRCode:      qrCode,
		NFCTag:      input.NFCTag,
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).Create(ctx, poi); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "qr code already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create poi")
		}
		return s.reconciler.Attach(ctx, tx, enums.OwnerTypePOI, poi.ID, toImageRefs(input.Images))
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.withImages(ctx, poi)
}

func (s *service) GetByUUID(ctx context.Context, id uuid.UUID) (*POIDTO, error) {
	poi, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, poi)
}

func (s *service) GetByQRCode(ctx context.Context, code string) (*POIDTO, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr code required")
	}

	poi, err := NewRepository(s.db.DB()).FindByQRCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "poi not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load poi")
	}
	return s.withImages(ctx, poi)
}

func (s *service) List(ctx context.Context, params pagination.Params) (*POIListDTO, error) {
	rows, nextCursor, err := NewRepository(s.db.DB()).List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pois")
	}

	items := make([]POIDTO, 0, len(rows))
	for i := range rows {
		dto, err := s.withImages(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *dto)
	}
	return &POIListDTO{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePOIInput) (*POIDTO, error) {
	poi, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		poi.Name = name
	}
	if input.Description != nil {
		poi.Description = input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid poi status")
		}
		poi.Status = *input.Status
	}
	if input.CoordX != nil {
		poi.CoordX = *input.CoordX
	}
	if input.CoordY != nil {
		poi.CoordY = *input.CoordY
	}
	if input.NFCTag != nil {
		poi.NFCTag = input.NFCTag
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).Save(ctx, poi); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save poi")
		}
		if input.Images == nil {
			return nil
		}
		return s.reconciler.Reconcile(ctx, tx, enums.OwnerTypePOI, poi.ID, toImageRefs(*input.Images))
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.withImages(ctx, poi)
}

// Delete tombstones the POI together with its images.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	poi, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).SoftDelete(ctx, poi.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete poi")
		}
		if err := s.images.SoftDeleteByOwner(ctx, tx, enums.OwnerTypePOI, poi.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete poi images")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.POI, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "poi id required")
	}
	poi, err := NewRepository(s.db.DB()).FindByUUID(ctx, id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "poi not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load poi")
	}
	return poi, nil
}

func (s *service) withImages(ctx context.Context, poi *models.POI) (*POIDTO, error) {
	rows, err := s.images.FindByOwner(ctx, nil, enums.OwnerTypePOI, poi.ID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load poi images")
	}
	dto := FromModel(poi)
	dto.Images = s.decorator.DecorateImages(ctx, media.ImagesFromModels(rows))
	return dto, nil
}

func toImageRefs(items []ImageRefInput) []media.ImageRef {
	refs := make([]media.ImageRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, media.ImageRef{Bucket: item.Bucket, FileKey: item.FileKey})
	}
	return refs
}
