package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeInput carries the writable recipe fields. Nil means absent.
type RecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	// Image is a base64 data URL.
	Image       *string
	Ingredients []IngredientAmount
	TagIDs      []uint
}

// RecipeFilter narrows List. Flags only apply to an authenticated viewer.
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService struct {
	db            *gorm.DB
	images        ImageStore
	maxImageBytes int
	log           *slog.Logger
}

func NewRecipeService(db *gorm.DB, images ImageStore, maxImageBytes int, log *slog.Logger) *RecipeService {
	return &RecipeService{
		db:            db,
		images:        images,
		maxImageBytes: maxImageBytes,
		log:           log,
	}
}

// Create stores the image, then inserts the recipe and its links in one
// transaction. The image is removed again when the transaction fails.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput) (*types.Recipe, error) {
	if err := validateRecipeFields(in, false); err != nil {
		return nil, err
	}

	key, err := s.storeImage(ctx, *in.Image)
	if err != nil {
		return nil, err
	}

	var recipeID uint
	err = RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		recipe := models.Recipe{
			AuthorID:    authorID,
			Name:        strings.TrimSpace(*in.Name),
			Text:        *in.Text,
			Image:       key,
			CookingTime: *in.CookingTime,
		}
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		_, err := ReconcileAssociations(ctx, tx, recipe.ID, Associations{
			Ingredients: in.Ingredients,
			TagIDs:      in.TagIDs,
		}, ReconcileOptions{})
		if err != nil {
			return err
		}
		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		s.discardImage(ctx, key)
		return nil, err
	}

	s.log.Info("recipe created", "recipe_id", recipeID, "author_id", authorID)
	return s.Get(ctx, authorID, recipeID)
}

// Update changes a recipe owned by actor. With partial set, absent fields
// keep their values; otherwise every field is required. A new image replaces
// the old one, which is deleted once the transaction commits.
func (s *RecipeService) Update(ctx context.Context, actor *models.User, recipeID uint, in RecipeInput, partial bool) (*types.Recipe, error) {
	current, err := s.authorize(ctx, actor, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validateRecipeFields(in, partial); err != nil {
		return nil, err
	}

	var newKey string
	if in.Image != nil {
		if newKey, err = s.storeImage(ctx, *in.Image); err != nil {
			return nil, err
		}
	}

	err = RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		_, err := ReconcileAssociations(ctx, tx, recipeID, Associations{
			Ingredients: in.Ingredients,
			TagIDs:      in.TagIDs,
		}, ReconcileOptions{Partial: partial})
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Text != nil {
			updates["text"] = *in.Text
		}
		if in.CookingTime != nil {
			updates["cooking_time"] = *in.CookingTime
		}
		if newKey != "" {
			updates["image"] = newKey
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Recipe{ID: recipeID}).Updates(updates).Error
	})
	if err != nil {
		s.discardImage(ctx, newKey)
		return nil, err
	}

	if newKey != "" {
		s.discardImage(ctx, current.Image)
	}
	s.log.Info("recipe updated", "recipe_id", recipeID, "actor_id", actor.ID, "partial", partial)
	return s.Get(ctx, actor.ID, recipeID)
}

// Delete removes a recipe owned by actor together with its links and image.
func (s *RecipeService) Delete(ctx context.Context, actor *models.User, recipeID uint) error {
	current, err := s.authorize(ctx, actor, recipeID)
	if err != nil {
		return err
	}

	err = RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, link := range []interface{}{&models.RecipeIngredient{}, &models.RecipeTag{}, &models.Favorite{}, &models.ShoppingCartItem{}} {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(link).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, recipeID).Error
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, current.Image)
	s.log.Info("recipe deleted", "recipe_id", recipeID, "actor_id", actor.ID)
	return nil
}

// authorize loads the recipe and checks that actor may change it.
func (s *RecipeService) authorize(ctx context.Context, actor *models.User, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("load recipe", err)
	}
	if actor == nil || (recipe.AuthorID != actor.ID && !actor.IsStaff) {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

func validateRecipeFields(in RecipeInput, partial bool) error {
	if in.Name == nil && !partial {
		return fieldError("name", "this field is required")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return fieldError("name", "this field may not be blank")
		}
		if len([]rune(name)) > 200 {
			return fieldError("name", "ensure this field has no more than 200 characters")
		}
	}

	if in.Text == nil && !partial {
		return fieldError("text", "this field is required")
	}
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		return fieldError("text", "this field may not be blank")
	}

	if in.CookingTime == nil && !partial {
		return fieldError("cooking_time", "this field is required")
	}
	if in.CookingTime != nil && (*in.CookingTime < models.MinCookingTime || *in.CookingTime > models.MaxCookingTime) {
		return fieldError("cooking_time", fmt.Sprintf("cooking time must be between %d and %d minutes", models.MinCookingTime, models.MaxCookingTime))
	}

	if in.Image == nil && !partial {
		return fieldError("image", "this field is required")
	}
	return nil
}

func (s *RecipeService) storeImage(ctx context.Context, dataURL string) (string, error) {
	data, contentType, err := DecodeImage(dataURL, s.maxImageBytes)
	if err != nil {
		return "", err
	}
	return s.images.Save(ctx, data, contentType)
}

// discardImage deletes an image that is no longer referenced. Failures only
// leave an orphaned object behind, so they are logged and not returned.
func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("failed to delete image", "key", key, "error", err)
	}
}

// Get returns one recipe as seen by viewerID (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, id uint) (*types.Recipe, error) {
	var recipe models.Recipe
	err := s.withDetails(s.db.WithContext(ctx)).First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get recipe", err)
	}

	views, err := s.recipeViews(s.db.WithContext(ctx), viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns recipes newest first.
func (s *RecipeService) List(ctx context.Context, viewerID uint, filter RecipeFilter, page Pagination) ([]types.Recipe, int64, error) {
	db := s.db.WithContext(ctx)

	q := db.Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		q = q.Where("id IN (?)", db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if filter.IsFavorited || filter.IsInShoppingCart {
		if viewerID == 0 {
			return []types.Recipe{}, 0, nil
		}
		if filter.IsFavorited {
			q = q.Where("id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
		}
		if filter.IsInShoppingCart {
			q = q.Where("id IN (?)", db.Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", viewerID))
		}
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storageErr("count recipes", err)
	}

	var recipes []models.Recipe
	err := s.withDetails(q).
		Order("published_at DESC, id DESC").
		Offset(page.offset()).Limit(page.limit()).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, storageErr("list recipes", err)
	}

	views, err := s.recipeViews(db, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *RecipeService) withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.id") }).
		Preload("Tags.Tag")
}

func (s *RecipeService) recipeViews(db *gorm.DB, viewerID uint, recipes []models.Recipe) ([]types.Recipe, error) {
	ids := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	subscribed, err := followedAuthors(db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := markedRecipes(db, &models.Favorite{}, viewerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := markedRecipes(db, &models.ShoppingCartItem{}, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]types.Recipe, 0, len(recipes))
	for _, r := range recipes {
		view := types.Recipe{
			ID:               r.ID,
			Tags:             make([]types.Tag, 0, len(r.Tags)),
			Author:           userView(r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]types.RecipeIngredient, 0, len(r.Ingredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            s.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for _, link := range r.Tags {
			view.Tags = append(view.Tags, tagView(link.Tag))
		}
		for _, link := range r.Ingredients {
			view.Ingredients = append(view.Ingredients, types.RecipeIngredient{
				ID:              link.IngredientID,
				Name:            link.Ingredient.Name,
				MeasurementUnit: link.Ingredient.MeasurementUnit,
				Amount:          link.Amount,
			})
		}
		out = append(out, view)
	}
	return out, nil
}

// markedRecipes reports which of recipeIDs the user has a row for in
// model's table (favorites or shopping cart).
func markedRecipes(db *gorm.DB, model interface{}, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return out, nil
	}

	var ids []uint
	err := db.Model(model).Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, storageErr("load recipe marks", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeSummary, error) {
	return s.addMark(ctx, userID, recipeID, &models.Favorite{UserID: userID, RecipeID: recipeID})
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.removeMark(ctx, userID, recipeID, &models.Favorite{})
}

func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeSummary, error) {
	return s.addMark(ctx, userID, recipeID, &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID})
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.removeMark(ctx, userID, recipeID, &models.ShoppingCartItem{})
}

func (s *RecipeService) addMark(ctx context.Context, userID, recipeID uint, row interface{}) (*types.RecipeSummary, error) {
	var recipe models.Recipe
	err := RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(row).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}

	summary := summaryView(recipe, s.images)
	return &summary, nil
}

func (s *RecipeService) removeMark(ctx context.Context, userID, recipeID uint, model interface{}) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return storageErr("check recipe", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	res := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return storageErr("delete recipe mark", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotPresent
	}
	return nil
}

// ShoppingList sums ingredient amounts over the recipes in the user's cart,
// grouped by ingredient name and unit and ordered by name.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingListItem, error) {
	var items []types.ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, storageErr("build shopping list", err)
	}
	return items, nil
}
