package favorites

import (
	"context"

	"github.com/pawkart/backend/internal/repo"
)

// Service manages a signed-in user's saved products.
type Service struct {
	Favorites repo.FavoritesRepo
	Products  repo.ProductsRepo
}

// Add saves a product. The product must exist and be active.
func (s *Service) Add(ctx context.Context, userID, productID string) error {
	product, err := s.Products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return repo.ErrNotFound
	}
	return s.Favorites.Add(ctx, userID, productID)
}

func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return s.Favorites.Remove(ctx, userID, productID)
}

func (s *Service) List(ctx context.Context, userID string) ([]repo.Product, error) {
	return s.Favorites.List(ctx, userID)
}

func (s *Service) Check(ctx context.Context, userID, productID string) (bool, error) {
	return s.Favorites.Exists(ctx, userID, productID)
}
