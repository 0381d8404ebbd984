package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestTags(t *testing.T) {
	s := newTestServer(t)
	tags := testhelpers.CreateTags(t, s.db, "breakfast", "dinner")

	w := s.do(http.MethodGet, "/api/tags/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]types.Tag](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "breakfast", list[0].Slug)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/tags/%d/", tags[1].ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dinner", decode[types.Tag](t, w).Slug)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/tags/999/", "", nil).Code)
}

func TestIngredients(t *testing.T) {
	s := newTestServer(t)
	ingredients := testhelpers.CreateIngredients(t, s.db, "Sugar", "salt", "pepper")

	w := s.do(http.MethodGet, "/api/ingredients/?name=S", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]types.Ingredient](t, w)
	require.Len(t, list, 2)
	names := []string{list[0].Name, list[1].Name}
	assert.ElementsMatch(t, []string{"Sugar", "salt"}, names)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/ingredients/%d/", ingredients[2].ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "g", decode[types.Ingredient](t, w).MeasurementUnit)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/ingredients/999/", "", nil).Code)
}
