package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestUserServiceSubscriptions(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	images := newMemoryImageStore()
	users := service.NewUserService(db, images)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")
	for _, name := range []string{"One", "Two", "Three", "Four"} {
		testhelpers.CreateRecipe(t, db, author, name)
	}

	sub, err := users.Subscribe(ctx, reader.ID, author.ID, 2)
	require.NoError(t, err)
	assert.True(t, sub.IsSubscribed)
	assert.EqualValues(t, 4, sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "Four", sub.Recipes[0].Name)

	_, err = users.Subscribe(ctx, reader.ID, author.ID, 2)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
	_, err = users.Subscribe(ctx, reader.ID, reader.ID, 2)
	assert.ErrorIs(t, err, service.ErrSelfFollow)
	_, err = users.Subscribe(ctx, reader.ID, 999999, 2)
	assert.ErrorIs(t, err, service.ErrNotFound)

	subs, total, err := users.Subscriptions(ctx, reader.ID, service.Pagination{}, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, subs, 1)
	assert.Len(t, subs[0].Recipes, service.DefaultRecipesLimit)

	got, err := users.Get(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSubscribed)

	got, err = users.Get(ctx, 0, author.ID)
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)

	require.NoError(t, users.Unsubscribe(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, users.Unsubscribe(ctx, reader.ID, author.ID), service.ErrNotPresent)
	assert.ErrorIs(t, users.Unsubscribe(ctx, reader.ID, 999999), service.ErrNotFound)

	subs, total, err = users.Subscriptions(ctx, reader.ID, service.Pagination{}, -1)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, subs)
}

func TestUserServiceList(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	users := service.NewUserService(db, newMemoryImageStore())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		testhelpers.CreateUser(t, db, name)
	}

	page, total, err := users.List(ctx, 0, service.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Username, "newest first")

	_, err = users.Get(ctx, 0, 999999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSubscriptionRecipesUseImageURLs(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	images := newMemoryImageStore()
	recipes := service.NewRecipeService(db, images, 0, logger.Discard())
	users := service.NewUserService(db, images)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")
	ing := testhelpers.CreateIngredients(t, db, "salt")
	tag := testhelpers.CreateTags(t, db, "snack")

	created, err := recipes.Create(ctx, author.ID, service.RecipeInput{
		Name:        ptr("Chips"),
		Text:        ptr("Fry."),
		CookingTime: ptr(5),
		Image:       ptr(pngDataURL()),
		Ingredients: []service.IngredientAmount{{IngredientID: ing[0].ID, Amount: 1}},
		TagIDs:      []uint{tag[0].ID},
	})
	require.NoError(t, err)

	sub, err := users.Subscribe(ctx, reader.ID, author.ID, 3)
	require.NoError(t, err)
	require.Len(t, sub.Recipes, 1)
	assert.Equal(t, created.Image, sub.Recipes[0].Image)
}
