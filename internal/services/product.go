package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/lumiereskin/storefront/internal/cache"
	"github.com/lumiereskin/storefront/internal/errors"
	"github.com/lumiereskin/storefront/internal/models"
	repository "github.com/lumiereskin/storefront/internal/repositories"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	sanitizer *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, productCache cache.Cache) *ProductService {
	return &ProductService{
		repo:  repo,
		cache: productCache,
		// Descriptions come from the admin back office as rich text; only a
		// small formatting subset survives.
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, errors.ValidationError("Price must not be negative")
	}

	product := &models.Product{
		Name:          req.Name,
		Brand:         req.Brand,
		Category:      req.Category,
		Description:   s.sanitizer.Sanitize(req.Description),
		Price:         req.Price,
		ImageRef:      req.ImageRef,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
		Status:        "active",
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(id, 10))

	var cached models.Product

	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		slog.Warn("Product cache read failed", slog.Int64("id", id), slog.String("error", err.Error()))
	} else if found {
		return &cached, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, 0); err != nil {
		slog.Warn("Product cache write failed", slog.Int64("id", id), slog.String("error", err.Error()))
	}

	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve product").WithError(err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, errors.ValidationError("Price must not be negative")
		}

		product.Price = *req.Price
	}

	if req.ImageRef != nil {
		product.ImageRef = *req.ImageRef
	}

	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}

	if req.Status != nil {
		product.Status = *req.Status
	}

	product.UpdatedAt = time.Now()

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to update product").WithError(err)
	}

	key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(id, 10))
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("Product cache invalidation failed", slog.Int64("id", id), slog.String("error", err.Error()))
	}

	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, page, size int) (*models.ProductListResponse, error) {
	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 20
	}

	products, total, err := s.repo.ListProducts(ctx, page, size)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list products").WithError(err)
	}

	return &models.ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		Size:     size,
	}, nil
}
