package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bakery/internal/model"
	"bakery/internal/repository"
	"bakery/internal/service"
)

// SeedCategory is the catalog file format: categories with nested products.
type SeedCategory struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Products    []SeedProduct `json:"products"`
}

// SeedProduct is one product with its sellable variants.
type SeedProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Variants    []SeedVariant   `json:"variants"`
}

// SeedVariant is one size of a product.
type SeedVariant struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	NutritionInfo string          `json:"nutrition_info"`
}

type seedStats struct {
	categoriesCreated int
	categoriesUpdated int
	productsCreated   int
	productsSkipped   int
}

type catalogSeeder struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	catalog    service.CategoryService
	items      service.ProductService
}

// fetchCatalog reads catalog JSON from a URL or a local file.
func fetchCatalog(ctx context.Context, source string) ([]SeedCategory, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("catalog source returned status code: %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		body = f
	}
	defer body.Close()
	return decodeCatalog(body)
}

func decodeCatalog(r io.Reader) ([]SeedCategory, error) {
	var categories []SeedCategory
	if err := json.NewDecoder(r).Decode(&categories); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return categories, nil
}

// seed creates missing categories, refreshes existing ones matched by name, and
// creates products that are not yet in their category. Existing products keep their stock.
func (s *catalogSeeder) seed(ctx context.Context, categories []SeedCategory) (seedStats, error) {
	var stats seedStats

	existing, err := s.categories.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list categories: %w", err)
	}
	byName := make(map[string]uint, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	for _, sc := range categories {
		in := service.CategoryInput{Name: sc.Name, Description: sc.Description, Image: sc.Image}

		var category *model.Category
		if id, ok := byName[strings.ToLower(sc.Name)]; ok {
			category, err = s.catalog.Update(ctx, id, in)
			if err != nil {
				return stats, fmt.Errorf("error updating category %s: %w", sc.Name, err)
			}
			stats.categoriesUpdated++
		} else {
			category, err = s.catalog.Create(ctx, in)
			if err != nil {
				return stats, fmt.Errorf("error creating category %s: %w", sc.Name, err)
			}
			byName[strings.ToLower(sc.Name)] = category.ID
			stats.categoriesCreated++
		}

		present, err := s.products.ListByCategory(ctx, category.ID)
		if err != nil {
			return stats, fmt.Errorf("list products of %s: %w", sc.Name, err)
		}
		names := make(map[string]bool, len(present))
		for _, p := range present {
			names[strings.ToLower(p.Name)] = true
		}

		for _, sp := range sc.Products {
			if names[strings.ToLower(sp.Name)] {
				stats.productsSkipped++
				continue
			}
			pin := service.ProductInput{
				Name:        sp.Name,
				Description: sp.Description,
				Image:       sp.Image,
				BasePrice:   sp.BasePrice,
				CategoryID:  category.ID,
			}
			for _, v := range sp.Variants {
				pin.Variants = append(pin.Variants, service.VariantInput{
					Name:          v.Name,
					Price:         v.Price,
					Stock:         v.Stock,
					NutritionInfo: v.NutritionInfo,
				})
			}
			if _, err := s.items.Create(ctx, pin); err != nil {
				return stats, fmt.Errorf("error creating product %s: %w", sp.Name, err)
			}
			names[strings.ToLower(sp.Name)] = true
			stats.productsCreated++
		}
	}
	return stats, nil
}

func demoCatalog() []SeedCategory {
	price := decimal.NewFromInt
	return []SeedCategory{
		{
			Name:        "Tortas",
			Description: "Tortas de celebración hechas a pedido",
			Products: []SeedProduct{
				{
					Name:        "Torta Selva Negra",
					Description: "Bizcocho de chocolate, crema y guindas",
					BasePrice:   price(18990),
					Variants: []SeedVariant{
						{Name: "12 porciones", Price: price(18990), Stock: 10, NutritionInfo: "Contiene gluten, lácteos y huevo"},
						{Name: "20 porciones", Price: price(27990), Stock: 5, NutritionInfo: "Contiene gluten, lácteos y huevo"},
					},
				},
				{
					Name:        "Torta Tres Leches",
					Description: "Bizcocho húmedo bañado en tres leches",
					BasePrice:   price(16990),
					Variants: []SeedVariant{
						{Name: "12 porciones", Price: price(16990), Stock: 8},
						{Name: "20 porciones", Price: price(24990), Stock: 4},
					},
				},
			},
		},
		{
			Name:        "Panadería",
			Description: "Pan fresco del día",
			Products: []SeedProduct{
				{
					Name:        "Marraqueta",
					Description: "Pan crujiente tradicional",
					BasePrice:   price(2500),
					Variants: []SeedVariant{
						{Name: "1 kg", Price: price(2500), Stock: 50},
					},
				},
			},
		},
		{
			Name:        "Pastelería",
			Description: "Pasteles individuales",
			Products: []SeedProduct{
				{
					Name:        "Kuchen de Manzana",
					Description: "Masa quebrada con manzana y canela",
					BasePrice:   price(9990),
					Variants: []SeedVariant{
						{Name: "Individual", Price: price(2490), Stock: 20},
						{Name: "Familiar", Price: price(9990), Stock: 6},
					},
				},
			},
		},
	}
}
