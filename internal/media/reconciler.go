package media

import (
	"context"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
)

// ImageRef identifies one object in storage as supplied by a write request.
type ImageRef struct {
	Bucket  string
	FileKey string
}

// Key is the structural identity used to diff desired refs against rows.
func (r ImageRef) Key() string {
	return r.Bucket + "/" + r.FileKey
}

type reconcilerImageRepository interface {
	FindByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, includeDeleted bool) ([]models.Image, error)
	CreateMany(ctx context.Context, tx *gorm.DB, images []*models.Image) error
	SaveMany(ctx context.Context, tx *gorm.DB, images []*models.Image) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []int64) error
}

// Reconciler keeps an owner's persisted image set in sync with the ordered
// list a write request supplies, creating and soft-deleting only the
// difference so surviving rows keep their ids.
type Reconciler interface {
	Attach(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, items []ImageRef) error
	Reconcile(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, desired []ImageRef) error
}

type reconciler struct {
	images reconcilerImageRepository
}

// NewReconciler builds an image reconciler over the provided repository.
func NewReconciler(images reconcilerImageRepository) (Reconciler, error) {
	if images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image repository required")
	}
	return &reconciler{images: images}, nil
}

// Attach creates one row per item for a brand-new owner. Position in the list
// decides sort_order and the head becomes the primary. Empty input is a no-op.
func (r *reconciler) Attach(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, items []ImageRef) error {
	if err := validateOwner(tx, ownerType, ownerID); err != nil {
		return err
	}
	if err := validateRefs(items); err != nil {
		return err
	}
	refs := dedupeRefs(items)
	if len(refs) == 0 {
		return nil
	}

	rows := make([]*models.Image, 0, len(refs))
	for i, ref := range refs {
		rows = append(rows, &models.Image{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			Bucket:    ref.Bucket,
			FileKey:   ref.FileKey,
			SortOrder: i,
			IsPrimary: i == 0,
		})
	}
	if err := r.images.CreateMany(ctx, tx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create images")
	}
	return nil
}

// Reconcile diffs the owner's live rows against the desired list: rows whose
// key left the list are soft-deleted, missing keys are inserted, and every
// survivor gets its sort_order and primary flag from the list position. An
// empty desired list soft-deletes everything, which is a valid end state.
func (r *reconciler) Reconcile(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, desired []ImageRef) error {
	if err := validateOwner(tx, ownerType, ownerID); err != nil {
		return err
	}
	if err := validateRefs(desired); err != nil {
		return err
	}
	refs := dedupeRefs(desired)

	existing, err := r.images.FindByOwner(ctx, tx, ownerType, ownerID, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load images")
	}

	desiredIndex := make(map[string]int, len(refs))
	for i, ref := range refs {
		desiredIndex[ref.Key()] = i
	}
	existingKeys := make(map[string]struct{}, len(existing))
	for _, img := range existing {
		existingKeys[img.Key()] = struct{}{}
	}

	var deleteIDs []int64
	for _, img := range existing {
		if _, keep := desiredIndex[img.Key()]; !keep {
			deleteIDs = append(deleteIDs, img.ID)
		}
	}
	if err := r.images.SoftDeleteByIDs(ctx, tx, deleteIDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete images")
	}

	if len(refs) == 0 {
		return nil
	}

	// The unique index on (owner_type, owner_id, sort_order) sees every live
	// row, so intermediate writes must never land on an occupied position.
	// Survivors are parked in the free band above the occupied range, new rows
	// are created in that band too, and a final pass moves each row down to
	// its list position.
	offset := 0
	for _, img := range existing {
		if img.SortOrder >= offset {
			offset = img.SortOrder + 1
		}
	}

	parked := make([]*models.Image, 0, len(existing))
	for i := range existing {
		img := &existing[i]
		index, ok := desiredIndex[img.Key()]
		if !ok {
			continue
		}
		img.SortOrder = offset + index
		img.IsPrimary = false
		parked = append(parked, img)
	}
	if err := r.images.SaveMany(ctx, tx, parked); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "park image order")
	}

	var created []*models.Image
	for _, ref := range refs {
		if _, exists := existingKeys[ref.Key()]; exists {
			continue
		}
		created = append(created, &models.Image{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			Bucket:    ref.Bucket,
			FileKey:   ref.FileKey,
			SortOrder: offset + desiredIndex[ref.Key()],
		})
	}
	if err := r.images.CreateMany(ctx, tx, created); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create images")
	}

	survivors, err := r.images.FindByOwner(ctx, tx, ownerType, ownerID, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload images")
	}

	saves := make([]*models.Image, 0, len(survivors))
	for i := range survivors {
		img := &survivors[i]
		index, ok := desiredIndex[img.Key()]
		if !ok {
			continue
		}
		img.SortOrder = index
		img.IsPrimary = index == 0
		saves = append(saves, img)
	}
	if err := r.images.SaveMany(ctx, tx, saves); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save image order")
	}
	return nil
}

func validateOwner(tx *gorm.DB, ownerType enums.OwnerType, ownerID int64) error {
	if tx == nil || tx.Statement == nil || tx.Statement.ConnPool == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if !ownerType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid owner type")
	}
	if ownerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	return nil
}

func validateRefs(refs []ImageRef) error {
	for _, ref := range refs {
		if ref.Bucket == "" || ref.FileKey == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "image bucket and file key required")
		}
	}
	return nil
}

// dedupeRefs drops repeated keys, keeping the first occurrence's position.
func dedupeRefs(refs []ImageRef) []ImageRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]ImageRef, 0, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.Key()]; dup {
			continue
		}
		seen[ref.Key()] = struct{}{}
		out = append(out, ref)
	}
	return out
}
