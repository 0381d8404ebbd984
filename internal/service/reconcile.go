package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

const (
	maxTransactionAttempts = 3
	pgUniqueViolation      = "23505"
)

// IngredientAmount is one requested ingredient link.
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}

// Associations is the desired link state of a recipe. A nil slice means the
// field was omitted from the request; an empty non-nil slice means it was
// sent empty.
type Associations struct {
	Ingredients []IngredientAmount
	TagIDs      []uint
}

type ReconcileOptions struct {
	// Partial allows omitted fields. Links of an omitted field are left as they are.
	Partial bool
}

// RecipeState is the link state of a recipe after reconciliation.
type RecipeState struct {
	RecipeID    uint
	Ingredients []models.RecipeIngredient
	Tags        []models.RecipeTag

	Inserted int
	Updated  int
	Deleted  int
}

// ReconcileAssociations makes the recipe's ingredient and tag links equal to
// desired. It must run inside tx; every precondition is checked before the
// first write, so a *ValidationError leaves the links untouched. Unchanged
// links keep their row ids.
func ReconcileAssociations(ctx context.Context, tx *gorm.DB, recipeID uint, desired Associations, opts ReconcileOptions) (state *RecipeState, err error) {
	start := time.Now()
	defer func() {
		metrics.ReconciliationDuration.Observe(time.Since(start).Seconds())
		var ve *ValidationError
		switch {
		case err == nil:
			metrics.ReconciliationsTotal.WithLabelValues("ok").Inc()
		case errors.As(err, &ve):
			metrics.ReconciliationsTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.ReconciliationsTotal.WithLabelValues("error").Inc()
		}
	}()

	tx = tx.WithContext(ctx)

	if err := lockRecipe(tx, recipeID); err != nil {
		return nil, err
	}

	tagIDs, err := validateAssociations(tx, desired, opts)
	if err != nil {
		return nil, err
	}

	state = &RecipeState{RecipeID: recipeID}

	if desired.Ingredients != nil {
		if err := syncIngredientLinks(tx, recipeID, desired.Ingredients, state); err != nil {
			return nil, err
		}
	}
	if tagIDs != nil {
		if err := syncTagLinks(tx, recipeID, tagIDs, state); err != nil {
			return nil, err
		}
	}

	if err := tx.Where("recipe_id = ?", recipeID).Order("id").Find(&state.Ingredients).Error; err != nil {
		return nil, storageErr("load ingredient links", err)
	}
	if err := tx.Where("recipe_id = ?", recipeID).Order("id").Find(&state.Tags).Error; err != nil {
		return nil, storageErr("load tag links", err)
	}

	return state, nil
}

// lockRecipe takes the row lock that serializes reconciliations of one
// recipe. SQLite has no row locks; its single writer serializes instead.
func lockRecipe(tx *gorm.DB, recipeID uint) error {
	q := tx.Model(&models.Recipe{}).Select("id")
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var recipe models.Recipe
	if err := q.Take(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr("lock recipe", err)
	}
	return nil
}

// validateAssociations checks every precondition and returns the
// de-duplicated tag ids (nil when tags were omitted).
func validateAssociations(tx *gorm.DB, desired Associations, opts ReconcileOptions) ([]uint, error) {
	if desired.Ingredients == nil && !opts.Partial || desired.Ingredients != nil && len(desired.Ingredients) == 0 {
		return nil, newValidationError(EmptyIngredients, "ingredients", 0)
	}

	if desired.Ingredients != nil {
		seen := make(map[uint]struct{}, len(desired.Ingredients))
		ids := make([]uint, 0, len(desired.Ingredients))
		for _, item := range desired.Ingredients {
			if _, dup := seen[item.IngredientID]; dup {
				return nil, newValidationError(DuplicateIngredient, "ingredients", item.IngredientID)
			}
			if item.Amount < models.MinAmount || item.Amount > models.MaxAmount {
				return nil, newValidationError(InvalidAmount, "ingredients", item.IngredientID)
			}
			seen[item.IngredientID] = struct{}{}
			ids = append(ids, item.IngredientID)
		}

		if missing, err := firstMissing(tx, &models.Ingredient{}, ids); err != nil {
			return nil, storageErr("check ingredients", err)
		} else if missing != 0 {
			return nil, newValidationError(UnknownIngredient, "ingredients", missing)
		}
	}

	if desired.TagIDs == nil && !opts.Partial || desired.TagIDs != nil && len(desired.TagIDs) == 0 {
		return nil, newValidationError(EmptyTags, "tags", 0)
	}
	if desired.TagIDs == nil {
		return nil, nil
	}

	seen := make(map[uint]struct{}, len(desired.TagIDs))
	tagIDs := make([]uint, 0, len(desired.TagIDs))
	for _, id := range desired.TagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		tagIDs = append(tagIDs, id)
	}

	if missing, err := firstMissing(tx, &models.Tag{}, tagIDs); err != nil {
		return nil, storageErr("check tags", err)
	} else if missing != 0 {
		return nil, newValidationError(UnknownTag, "tags", missing)
	}

	return tagIDs, nil
}

// firstMissing returns the first id, in input order, with no row in model's
// table, or 0 when all exist.
func firstMissing(tx *gorm.DB, model interface{}, ids []uint) (uint, error) {
	var found []uint
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return 0, err
	}
	if len(found) == len(ids) {
		return 0, nil
	}

	exists := make(map[uint]struct{}, len(found))
	for _, id := range found {
		exists[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := exists[id]; !ok {
			return id, nil
		}
	}
	return 0, nil
}

func syncIngredientLinks(tx *gorm.DB, recipeID uint, desired []IngredientAmount, state *RecipeState) error {
	var existing []models.RecipeIngredient
	if err := tx.Where("recipe_id = ?", recipeID).Find(&existing).Error; err != nil {
		return storageErr("load ingredient links", err)
	}

	current := make(map[uint]models.RecipeIngredient, len(existing))
	for _, link := range existing {
		current[link.IngredientID] = link
	}

	wanted := make(map[uint]struct{}, len(desired))
	var inserts []models.RecipeIngredient
	for _, item := range desired {
		wanted[item.IngredientID] = struct{}{}

		link, ok := current[item.IngredientID]
		if !ok {
			inserts = append(inserts, models.RecipeIngredient{
				RecipeID:     recipeID,
				IngredientID: item.IngredientID,
				Amount:       item.Amount,
			})
			continue
		}
		if link.Amount == item.Amount {
			continue
		}
		if err := tx.Model(&models.RecipeIngredient{}).Where("id = ?", link.ID).Update("amount", item.Amount).Error; err != nil {
			return storageErr("update ingredient link", err)
		}
		state.Updated++
	}

	if len(inserts) > 0 {
		if err := tx.Create(&inserts).Error; err != nil {
			return storageErr("insert ingredient links", err)
		}
		state.Inserted += len(inserts)
	}

	stale := staleLinkIDs(existing, wanted, func(l models.RecipeIngredient) (uint, uint) { return l.ID, l.IngredientID })
	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return storageErr("delete ingredient links", err)
		}
		state.Deleted += len(stale)
	}

	recordMutations("recipe_ingredients", len(inserts), state.Updated, len(stale))
	return nil
}

func syncTagLinks(tx *gorm.DB, recipeID uint, tagIDs []uint, state *RecipeState) error {
	var existing []models.RecipeTag
	if err := tx.Where("recipe_id = ?", recipeID).Find(&existing).Error; err != nil {
		return storageErr("load tag links", err)
	}

	current := make(map[uint]struct{}, len(existing))
	for _, link := range existing {
		current[link.TagID] = struct{}{}
	}

	wanted := make(map[uint]struct{}, len(tagIDs))
	var inserts []models.RecipeTag
	for _, id := range tagIDs {
		wanted[id] = struct{}{}
		if _, ok := current[id]; !ok {
			inserts = append(inserts, models.RecipeTag{RecipeID: recipeID, TagID: id})
		}
	}

	if len(inserts) > 0 {
		if err := tx.Create(&inserts).Error; err != nil {
			return storageErr("insert tag links", err)
		}
		state.Inserted += len(inserts)
	}

	stale := staleLinkIDs(existing, wanted, func(l models.RecipeTag) (uint, uint) { return l.ID, l.TagID })
	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.RecipeTag{}).Error; err != nil {
			return storageErr("delete tag links", err)
		}
		state.Deleted += len(stale)
	}

	recordMutations("recipe_tags", len(inserts), 0, len(stale))
	return nil
}

// staleLinkIDs returns the row ids of links whose target is not wanted.
func staleLinkIDs[L any](links []L, wanted map[uint]struct{}, key func(L) (id, target uint)) []uint {
	var stale []uint
	for _, link := range links {
		id, target := key(link)
		if _, ok := wanted[target]; !ok {
			stale = append(stale, id)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	return stale
}

func recordMutations(table string, inserted, updated, deleted int) {
	metrics.LinkMutationsTotal.WithLabelValues(table, "insert").Add(float64(inserted))
	metrics.LinkMutationsTotal.WithLabelValues(table, "update").Add(float64(updated))
	metrics.LinkMutationsTotal.WithLabelValues(table, "delete").Add(float64(deleted))
}

// RunInTransaction runs fn in one transaction and rolls back on any error.
// A uniqueness violation raised by a concurrent writer restarts the whole
// transaction, up to maxTransactionAttempts times. Domain errors come back
// unchanged; everything else is a *StorageError.
func RunInTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTransactionAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || isDomainError(err) || !isUniqueViolation(err) {
			break
		}
		if attempt < maxTransactionAttempts {
			metrics.TransactionRetriesTotal.Inc()
		}
	}

	if err == nil || isDomainError(err) {
		return err
	}
	return storageErr("transaction", err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
