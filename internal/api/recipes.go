package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	base
	auth    *service.AuthService
	recipes *service.RecipeService
	limiter *middleware.RateLimiter
}

func NewRecipeHandler(b base, auth *service.AuthService, recipes *service.RecipeService, limiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{base: b, auth: auth, recipes: recipes, limiter: limiter}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuth(h.auth)

	create := []gin.HandlerFunc{required}
	if h.limiter != nil {
		create = append(create, h.limiter.Middleware())
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", optional, h.List)
		recipes.POST("/", append(create, h.Create)...)
		recipes.GET("/download_shopping_cart/", required, h.DownloadShoppingCart)
		recipes.GET("/:id/", optional, h.Get)
		recipes.PATCH("/:id/", required, h.Update)
		recipes.PUT("/:id/", required, h.Replace)
		recipes.DELETE("/:id/", required, h.Delete)
		recipes.POST("/:id/favorite/", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite/", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", required, h.RemoveFromCart)
	}
}

// flagParam reports whether a boolean filter is switched on. Any non-empty
// value other than "0" counts as on.
func flagParam(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v != "" && v != "0"
}

// List accepts author, repeated tags (slugs), is_favorited, is_in_shopping_cart,
// page and limit.
func (h *RecipeHandler) List(c *gin.Context) {
	filter := service.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      flagParam(c, "is_favorited"),
		IsInShoppingCart: flagParam(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.FieldErrors{"author": {"a valid integer is required"}})
			return
		}
		filter.AuthorID = uint(author)
	}

	page := parsePagination(c)
	recipes, total, err := h.recipes.List(c.Request.Context(), middleware.CurrentUserID(c), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, recipes, total, page))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req types.RecipeRequest
	if !h.bind(c, &req) {
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), middleware.CurrentUserID(c), recipeInput(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// Update is PATCH: absent fields and associations keep their values.
func (h *RecipeHandler) Update(c *gin.Context) {
	h.update(c, true)
}

// Replace is PUT: every field, the image included, must be sent.
func (h *RecipeHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

func (h *RecipeHandler) update(c *gin.Context, partial bool) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	var req types.RecipeRequest
	if !h.bind(c, &req) {
		return
	}
	recipe, err := h.recipes.Update(c.Request.Context(), middleware.CurrentUser(c), id, recipeInput(req), partial)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.mark(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.unmark(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.mark(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.unmark(c, h.recipes.RemoveFromCart)
}

func (h *RecipeHandler) mark(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*types.RecipeSummary, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	summary, err := add(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (h *RecipeHandler) unmark(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	if err := remove(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the summed ingredients of the caller's cart as
// an attachment. format is pdf (default) or txt.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	format := c.DefaultQuery("format", "pdf")
	if format != "pdf" && format != "txt" {
		c.JSON(http.StatusBadRequest, types.FieldErrors{"format": {"must be one of: pdf txt"}})
		return
	}

	items, err := h.recipes.ShoppingList(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	contentType := "application/pdf"
	if format == "txt" {
		contentType = "text/plain; charset=utf-8"
		err = service.RenderShoppingListText(&buf, items)
	} else {
		err = service.RenderShoppingListPDF(&buf, items)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_list.`+format+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// recipeInput keeps nil slices nil so an omitted list stays distinguishable
// from an empty one.
func recipeInput(req types.RecipeRequest) service.RecipeInput {
	in := service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		TagIDs:      req.Tags,
	}
	if req.Ingredients != nil {
		in.Ingredients = make([]service.IngredientAmount, 0, len(req.Ingredients))
		for _, ing := range req.Ingredients {
			in.Ingredients = append(in.Ingredients, service.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount})
		}
	}
	return in
}
