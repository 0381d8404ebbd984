package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CatalogService serves the read-only tag and ingredient dictionaries.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, storageErr("list tags", err)
	}
	out := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagView(t))
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get tag", err)
	}
	view := tagView(tag)
	return &view, nil
}

// ListIngredients returns ingredients ordered by name. A non-empty name keeps
// only those whose name starts with it, ignoring case.
func (s *CatalogService) ListIngredients(ctx context.Context, name string) ([]types.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name")
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(name))+"%")
	}

	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, storageErr("list ingredients", err)
	}
	out := make([]types.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		out = append(out, ingredientView(ing))
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.Ingredient, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get ingredient", err)
	}
	view := ingredientView(ing)
	return &view, nil
}

// ImportResult reports the outcome of an ingredient import.
type ImportResult struct {
	Added   int
	Skipped []string
}

// ImportIngredients reads a JSON array of {"name", "measurement_unit"}
// objects and creates the ones not present yet. Invalid items are skipped
// and listed in the result.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var items []types.Ingredient
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}

	result := &ImportResult{}
	db := s.db.WithContext(ctx)
	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		unit := strings.TrimSpace(item.MeasurementUnit)
		if name == "" || unit == "" || utf8.RuneCountInString(name) > 80 || utf8.RuneCountInString(unit) > 30 {
			result.Skipped = append(result.Skipped, fmt.Sprintf("item %d: invalid ingredient %q", i, item.Name))
			continue
		}

		var count int64
		if err := db.Model(&models.Ingredient{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return nil, storageErr("check ingredient", err)
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&models.Ingredient{Name: name, MeasurementUnit: unit}).Error; err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		result.Added++
	}
	return result, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func tagView(t models.Tag) types.Tag {
	return types.Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientView(i models.Ingredient) types.Ingredient {
	return types.Ingredient{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
