package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// DefaultRecipesLimit is how many recipes a subscription entry previews.
const DefaultRecipesLimit = 3

type UserService struct {
	db     *gorm.DB
	images ImageStore
}

func NewUserService(db *gorm.DB, images ImageStore) *UserService {
	return &UserService{db: db, images: images}
}

// List returns users newest first. viewerID is 0 for anonymous callers.
func (s *UserService) List(ctx context.Context, viewerID uint, page Pagination) ([]types.User, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, storageErr("count users", err)
	}

	var users []models.User
	if err := db.Order("id DESC").Offset(page.offset()).Limit(page.limit()).Find(&users).Error; err != nil {
		return nil, 0, storageErr("list users", err)
	}

	subscribed, err := followedAuthors(db, viewerID, userIDs(users))
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.User, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u, subscribed[u.ID]))
	}
	return out, total, nil
}

func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*types.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get user", err)
	}

	subscribed, err := followedAuthors(db, viewerID, []uint{id})
	if err != nil {
		return nil, err
	}
	view := userView(user, subscribed[id])
	return &view, nil
}

// Subscribe makes followerID follow authorID and returns the author entry.
func (s *UserService) Subscribe(ctx context.Context, followerID, authorID uint, recipesLimit int) (*types.Subscription, error) {
	err := RunInTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var author models.User
		if err := tx.Select("id").First(&author, authorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if followerID == authorID {
			return ErrSelfFollow
		}

		var count int64
		if err := tx.Model(&models.Follow{}).Where("follower_id = ? AND author_id = ?", followerID, authorID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(&models.Follow{FollowerID: followerID, AuthorID: authorID}).Error
	})
	if err != nil {
		return nil, err
	}

	subs, err := s.subscriptionViews(s.db.WithContext(ctx), []uint{authorID}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func (s *UserService) Unsubscribe(ctx context.Context, followerID, authorID uint) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", authorID).Count(&count).Error; err != nil {
		return storageErr("check user", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	res := db.Where("follower_id = ? AND author_id = ?", followerID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return storageErr("delete follow", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotPresent
	}
	return nil
}

// Subscriptions lists the authors userID follows, most recent follow first.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page Pagination, recipesLimit int) ([]types.Subscription, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, storageErr("count subscriptions", err)
	}

	var authorIDs []uint
	err := db.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("id DESC").
		Offset(page.offset()).Limit(page.limit()).
		Pluck("author_id", &authorIDs).Error
	if err != nil {
		return nil, 0, storageErr("list subscriptions", err)
	}
	if len(authorIDs) == 0 {
		return []types.Subscription{}, total, nil
	}

	subs, err := s.subscriptionViews(db, authorIDs, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// subscriptionViews builds entries for authors the caller follows, in the
// order of authorIDs.
func (s *UserService) subscriptionViews(db *gorm.DB, authorIDs []uint, recipesLimit int) ([]types.Subscription, error) {
	if recipesLimit < 0 {
		recipesLimit = DefaultRecipesLimit
	}

	var authors []models.User
	if err := db.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
		return nil, storageErr("load authors", err)
	}
	byID := make(map[uint]models.User, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	type countRow struct {
		AuthorID uint
		Total    int64
	}
	var counts []countRow
	err := db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, storageErr("count recipes", err)
	}
	recipeCounts := make(map[uint]int64, len(counts))
	for _, c := range counts {
		recipeCounts[c.AuthorID] = c.Total
	}

	out := make([]types.Subscription, 0, len(authorIDs))
	for _, id := range authorIDs {
		author, ok := byID[id]
		if !ok {
			continue
		}

		recipes := []models.Recipe{}
		if recipesLimit > 0 {
			err := db.Where("author_id = ?", id).Order("published_at DESC, id DESC").Limit(recipesLimit).Find(&recipes).Error
			if err != nil {
				return nil, storageErr("load recipes", err)
			}
		}

		out = append(out, types.Subscription{
			User:         userView(author, true),
			Recipes:      summaryViews(recipes, s.images),
			RecipesCount: recipeCounts[id],
		})
	}
	return out, nil
}

// followedAuthors reports which of authorIDs viewerID follows.
func followedAuthors(db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if viewerID == 0 || len(authorIDs) == 0 {
		return out, nil
	}

	var ids []uint
	err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, storageErr("load follows", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func userView(u models.User, subscribed bool) types.User {
	return types.User{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func summaryViews(recipes []models.Recipe, images ImageStore) []types.RecipeSummary {
	out := make([]types.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, summaryView(r, images))
	}
	return out
}

func summaryView(r models.Recipe, images ImageStore) types.RecipeSummary {
	return types.RecipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		Image:       images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}
