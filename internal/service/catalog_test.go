package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestCatalogServiceIngredients(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	testhelpers.CreateIngredients(t, db, "Sugar", "salt", "butter", "50%_cream")

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	found, err := svc.ListIngredients(ctx, "S")
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, i := range found {
		names = append(names, i.Name)
	}
	assert.ElementsMatch(t, []string{"Sugar", "salt"}, names)

	found, err = svc.ListIngredients(ctx, "50%_")
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = svc.ListIngredients(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, found, "wildcards are matched literally")

	got, err := svc.GetIngredient(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0], *got)

	_, err = svc.GetIngredient(ctx, 999999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCatalogServiceTags(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	created := testhelpers.CreateTags(t, db, "breakfast", "lunch")

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "breakfast", tags[0].Slug)

	tag, err := svc.GetTag(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", tag.Name)

	_, err = svc.GetTag(ctx, 999999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCatalogServiceImportIngredients(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	testhelpers.CreateIngredients(t, db, "salt")

	input := `[
		{"name": "salt", "measurement_unit": "g"},
		{"name": "water", "measurement_unit": "ml"},
		{"name": "", "measurement_unit": "g"},
		{"name": "water", "measurement_unit": "ml"},
		{"name": "pepper", "measurement_unit": "pinch"}
	]`

	result, err := svc.ImportIngredients(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Len(t, result.Skipped, 1)

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, ing := range all {
		names = append(names, ing.Name)
	}
	assert.ElementsMatch(t, []string{"salt", "water", "pepper"}, names)

	_, err = svc.ImportIngredients(ctx, strings.NewReader(`{"name": "salt"}`))
	assert.Error(t, err)
}

func TestCatalogServiceImportIngredientsCountsCharacters(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	fits := strings.Repeat("ж", 50)
	tooLong := strings.Repeat("ж", 81)
	input := `[
		{"name": "` + fits + `", "measurement_unit": "мл"},
		{"name": "` + tooLong + `", "measurement_unit": "г"},
		{"name": "соль", "measurement_unit": "` + strings.Repeat("г", 31) + `"}
	]`

	result, err := svc.ImportIngredients(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Len(t, result.Skipped, 2)

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, fits, all[0].Name)
	assert.Equal(t, "мл", all[0].MeasurementUnit)
}
