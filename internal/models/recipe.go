package models

import (
	"time"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 4320

	MinAmount = 1
	MaxAmount = 10000
)

// Recipe is a published dish. AuthorID never changes after creation.
type Recipe struct {
	ID          uint      `gorm:"primarykey"`
	AuthorID    uint      `gorm:"not null;index"`
	Author      User      `gorm:"constraint:OnDelete:RESTRICT"`
	Name        string    `gorm:"size:200;not null"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"size:255;not null"`
	CookingTime int       `gorm:"not null;check:cooking_time_range,cooking_time >= 1 AND cooking_time <= 4320"`
	PublishedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time

	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
	Tags        []RecipeTag        `gorm:"constraint:OnDelete:CASCADE"`
}

// RecipeIngredient links a recipe to an ingredient with an amount.
// At most one row exists per (recipe, ingredient).
type RecipeIngredient struct {
	ID           uint       `gorm:"primarykey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:amount_range,amount >= 1 AND amount <= 10000"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// RecipeTag links a recipe to a tag. At most one row exists per (recipe, tag).
type RecipeTag struct {
	ID       uint `gorm:"primarykey"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	Tag      Tag  `gorm:"constraint:OnDelete:CASCADE"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// Favorite marks a recipe as one of the user's favorites.
type Favorite struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_pair"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorite_pair;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ShoppingCartItem puts a recipe into the user's shopping cart.
type ShoppingCartItem struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_pair"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_cart_pair;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

func (ShoppingCartItem) TableName() string {
	return "shopping_cart_items"
}

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCartItem{},
	}
}
