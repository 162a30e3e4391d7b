package main

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mjfrontdev/store/internal/catalog"
	"github.com/mjfrontdev/store/internal/domain"
)

func patchFromFlags(search string, category int64, ordering string) catalog.FilterPatch {
	patch := catalog.FilterPatch{}
	if search != "" {
		patch.Search = &search
	}
	if category != 0 {
		patch.Category = &category
	}
	if ordering != "" {
		patch.Ordering = &ordering
	}
	return patch
}

func domainShippingForm(address, city, postal, phone, payment, notes string) domain.ShippingForm {
	return domain.ShippingForm{
		ShippingAddress:    address,
		ShippingCity:       city,
		ShippingPostalCode: postal,
		ShippingPhone:      phone,
		PaymentMethod:      payment,
		Notes:              notes,
	}
}

// Demo catalog for the in-process stub.

func seedCategories() []domain.Category {
	return []domain.Category{
		{ID: 1, Name: "Electronics", Slug: "electronics"},
		{ID: 2, Name: "Accessories", Slug: "accessories"},
	}
}

func seedProducts() []domain.Product {
	now := time.Now().UTC()
	electronics := &domain.Category{ID: 1, Name: "Electronics"}
	accessories := &domain.Category{ID: 2, Name: "Accessories"}
	return []domain.Product{
		{
			ID: 1, Title: "Smartphone X200", Price: decimal.NewFromInt(18_500_000),
			Category: electronics, Rating: 4.5, RatingCount: 120,
			StockQuantity: 12, IsInStock: true, IsActive: true,
			CreatedAt: now.Add(-72 * time.Hour),
		},
		{
			ID: 2, Title: "Wireless Headphones", Price: decimal.NewFromInt(2_300_000),
			Category: electronics, Rating: 4.1, RatingCount: 86,
			StockQuantity: 30, IsInStock: true, IsActive: true,
			CreatedAt: now.Add(-48 * time.Hour),
		},
		{
			ID: 3, Title: "Phone Case", Price: decimal.NewFromInt(350_000),
			Category: accessories, Rating: 3.9, RatingCount: 41,
			StockQuantity: 0, IsInStock: false, IsActive: true,
			CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID: 4, Title: "USB-C Charger", Price: decimal.NewFromInt(780_000),
			Category: accessories, Rating: 4.7, RatingCount: 210,
			StockQuantity: 55, IsInStock: true, IsActive: true,
			CreatedAt: now.Add(-12 * time.Hour),
		},
	}
}
