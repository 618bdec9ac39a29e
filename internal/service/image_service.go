package service

import (
	"context"
	"fmt"
	"time"

	"bakery/internal/cache"
	"bakery/internal/errors"
	"bakery/internal/model"
	"bakery/internal/repository"
)

// ImageInput describes an image already uploaded to object storage.
type ImageInput struct {
	URL       string
	Filename  string
	MimeType  string
	SizeBytes int64
	IsPrimary bool
}

// ImageService handles product image registration.
type ImageService interface {
	List(ctx context.Context, productID uint) ([]model.Image, error)
	// Register appends an image to the product. A primary image replaces the previous primary.
	Register(ctx context.Context, productID uint, in ImageInput) (*model.Image, error)
	SetPrimary(ctx context.Context, productID, imageID uint) (*model.Image, error)
	Delete(ctx context.Context, productID, imageID uint) error
}

type imageService struct {
	tx       repository.Transactor
	images   repository.ImageRepository
	products repository.ProductRepository
	cache    *cache.Client
	now      func() time.Time
}

// NewImageService creates a new image service.
func NewImageService(tx repository.Transactor, images repository.ImageRepository, products repository.ProductRepository, cache *cache.Client) ImageService {
	return &imageService{
		tx:       tx,
		images:   images,
		products: products,
		cache:    cache,
		now:      time.Now,
	}
}

func (s *imageService) List(ctx context.Context, productID uint) ([]model.Image, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product", productID)
	}
	images, err := s.images.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

func (s *imageService) Register(ctx context.Context, productID uint, in ImageInput) (*model.Image, error) {
	url, err := requireText("url", in.URL, 500)
	if err != nil {
		return nil, err
	}
	filename, err := requireText("filename", in.Filename, 255)
	if err != nil {
		return nil, err
	}
	if err := maxText("mime_type", in.MimeType, 100); err != nil {
		return nil, err
	}
	if in.SizeBytes < 0 {
		return nil, errors.Invalid("size_bytes", "must not be negative")
	}

	image := &model.Image{
		ProductID:  productID,
		URL:        url,
		Filename:   filename,
		MimeType:   in.MimeType,
		SizeBytes:  in.SizeBytes,
		IsPrimary:  in.IsPrimary,
		UploadedAt: s.now().UTC(),
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Products.FindByID(ctx, productID); err != nil {
			return notFound(err, "product", productID)
		}
		count, err := repos.Images.CountByProduct(ctx, productID)
		if err != nil {
			return err
		}
		image.DisplayOrder = int(count)
		if image.IsPrimary {
			if err := repos.Images.ClearPrimary(ctx, productID); err != nil {
				return err
			}
		}
		return repos.Images.Create(ctx, image)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, productID)
	return image, nil
}

func (s *imageService) SetPrimary(ctx context.Context, productID, imageID uint) (*model.Image, error) {
	var image *model.Image
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		image, err = ownedImage(ctx, repos.Images, productID, imageID)
		if err != nil {
			return err
		}
		if err := repos.Images.ClearPrimary(ctx, productID); err != nil {
			return err
		}
		if err := repos.Images.SetPrimary(ctx, imageID); err != nil {
			return err
		}
		image.IsPrimary = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, productID)
	return image, nil
}

func (s *imageService) Delete(ctx context.Context, productID, imageID uint) error {
	if _, err := ownedImage(ctx, s.images, productID, imageID); err != nil {
		return err
	}
	if err := s.images.Delete(ctx, imageID); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	s.invalidate(ctx, productID)
	return nil
}

// invalidate drops the product's cached reads, including its category listing.
func (s *imageService) invalidate(ctx context.Context, productID uint) {
	var categoryIDs []uint
	if product, err := s.products.FindByID(ctx, productID); err == nil {
		categoryIDs = append(categoryIDs, product.CategoryID)
	}
	invalidateProducts(ctx, s.cache, categoryIDs, productID)
}

func ownedImage(ctx context.Context, images repository.ImageRepository, productID, imageID uint) (*model.Image, error) {
	image, err := images.FindByID(ctx, imageID)
	if err != nil {
		return nil, notFound(err, "image", imageID)
	}
	if image.ProductID != productID {
		return nil, &errors.NotFoundError{
			Resource: "image",
			ID:       imageID,
			Detail:   fmt.Sprintf("image %d not found for product %d", imageID, productID),
		}
	}
	return image, nil
}
