// Package repo implements the data persistence layer for the badge service,
// backed by GORM. This file provides read-only repository functions for the
// Product model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only query
// composition.
//
// Error semantics:
//   - When a product is not found, FindProductBySlug returns ErrNotFound.
//   - On DB errors (connectivity issues, etc.), the raw gorm error is
//     propagated.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/domain"
)

// ErrNotFound is returned when a looked-up row does not exist. It aliases
// gorm.ErrRecordNotFound so callers can use errors.Is with either sentinel.
var ErrNotFound = gorm.ErrRecordNotFound

// FindProductBySlug fetches a single product by its unique slug, or
// ErrNotFound if no such product exists. Soft-deleted products are treated
// as absent.
func FindProductBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
