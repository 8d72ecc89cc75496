package service

import (
	"context"
	"errors"
	"testing"

	"github.com/medcart/internal/models"
	"github.com/medcart/internal/repository"

	"github.com/shopspring/decimal"
)

func newProductServiceForTest(t *testing.T) (*ProductService, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	return NewProductService(repository.NewProductRepository(f.db)), f
}

func TestProductCreateValidation(t *testing.T) {
	products, _ := newProductServiceForTest(t)

	cases := []struct {
		name  string
		input CreateProductInput
		field string
	}{
		{name: "missing name", input: CreateProductInput{Price: models.MustMoney("10.00")}, field: "name"},
		{name: "zero price", input: CreateProductInput{Name: "Scalpel", Price: models.MustMoney("0")}, field: "price"},
		{name: "negative stock", input: CreateProductInput{Name: "Scalpel", Price: models.MustMoney("5.00"), StockQuantity: -1}, field: "stock_quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := products.Create(tc.input)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) || validationErr.Field != tc.field {
				t.Fatalf("expected validation on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestProductLifecycle(t *testing.T) {
	products, _ := newProductServiceForTest(t)
	ctx := context.Background()

	created, err := products.Create(CreateProductInput{
		Name:           " Portable Suction Unit ",
		Category:       "respiratory",
		Tags:           []string{"icu", " icu ", ""},
		Specifications: map[string]interface{}{"voltage": "220V"},
		Price:          models.MustMoney("15499.99"),
		StockQuantity:  4,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Name != "Portable Suction Unit" || len(created.Tags) != 1 || !created.IsActive {
		t.Fatalf("unexpected product: %+v", created)
	}

	public, err := products.GetPublic(ctx, created.ID)
	if err != nil || public.ID != created.ID {
		t.Fatalf("get public failed: %v", err)
	}

	newPrice := models.MustMoney("14999.00")
	updated, err := products.Update(ctx, created.ID, UpdateProductInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Price.String() != "14999.00" {
		t.Fatalf("unexpected price %s", updated.Price.String())
	}

	if _, err := products.AdjustStock(ctx, created.ID, -5); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("stock must not go negative, got %v", err)
	}
	adjusted, err := products.AdjustStock(ctx, created.ID, 6)
	if err != nil || adjusted.StockQuantity != 10 {
		t.Fatalf("adjust stock failed: %v", err)
	}

	if err := products.Deactivate(ctx, created.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := products.GetPublic(ctx, created.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product should be hidden, got %v", err)
	}
	if admin, err := products.GetAdmin(created.ID); err != nil || admin.IsActive {
		t.Fatalf("admin should still see inactive product: %v", err)
	}
}

func TestProductListPublicFilters(t *testing.T) {
	products, f := newProductServiceForTest(t)
	f.createProduct(t, "Infusion Pump", "30000.00", 2)
	f.createProduct(t, "Tongue Depressor", "1.00", 1000)
	hidden := f.createProduct(t, "Hidden Pump", "100.00", 2)
	if err := f.db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	items, total, err := products.ListPublic(ProductQuery{Search: "pump"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Name != "Infusion Pump" {
		t.Fatalf("unexpected list: total=%d items=%v", total, items)
	}

	min := decimal.NewFromInt(500)
	max := decimal.NewFromInt(10)
	if _, _, err := products.ListPublic(ProductQuery{PriceMin: &min, PriceMax: &max}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation for inverted price range, got %v", err)
	}

	_, adminTotal, err := products.ListAdmin(ProductQuery{Search: "pump"})
	if err != nil || adminTotal != 2 {
		t.Fatalf("admin list should include inactive, total=%d err=%v", adminTotal, err)
	}
}
