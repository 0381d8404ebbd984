package testhelpers

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// CreateUser inserts a user with a unique username and email.
// The password hash is not a valid bcrypt hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTags inserts one tag per slug.
func CreateTags(t *testing.T, db *gorm.DB, slugs ...string) []models.Tag {
	t.Helper()
	tags := make([]models.Tag, 0, len(slugs))
	for i, slug := range slugs {
		tag := models.Tag{
			Name:  slug,
			Slug:  slug,
			Color: fmt.Sprintf("#%06X", 0x100000+i),
		}
		if err := db.Create(&tag).Error; err != nil {
			t.Fatalf("failed to create tag %s: %v", slug, err)
		}
		tags = append(tags, tag)
	}
	return tags
}

// CreateIngredients inserts one ingredient per name, measured in grams.
func CreateIngredients(t *testing.T, db *gorm.DB, names ...string) []models.Ingredient {
	t.Helper()
	ingredients := make([]models.Ingredient, 0, len(names))
	for _, name := range names {
		ing := models.Ingredient{Name: name, MeasurementUnit: "g"}
		if err := db.Create(&ing).Error; err != nil {
			t.Fatalf("failed to create ingredient %s: %v", name, err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients
}

// CreateRecipe inserts a bare recipe row without links.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Mix and serve.",
		Image:       "recipes/images/test.png",
		CookingTime: 10,
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}
