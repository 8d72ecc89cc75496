//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/medcart/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.PaymentIntent{},
		&models.OrderItem{},
		&models.Order{},
		&models.CartItem{},
		&models.Product{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresConcurrentDecrementNeverOversells(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)
	product := &models.Product{Name: "ICU Monitor", Price: models.MustMoney("999.00"), StockQuantity: 5, IsActive: true}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				affected, err := repo.WithTx(tx).DecrementStock(product.ID, 1)
				if err != nil {
					return err
				}
				if affected == 1 {
					mu.Lock()
					success++
					mu.Unlock()
				}
				return nil
			})
			if err != nil {
				t.Errorf("decrement tx failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(product.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if success != 5 || stored.StockQuantity != 0 {
		t.Fatalf("want 5 successes and stock 0, got success=%d stock=%d", success, stored.StockQuantity)
	}
}

func TestPostgresSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)
	product := &models.Product{
		Name:          "Portable ECG",
		Description:   "Twelve lead recorder",
		Tags:          models.StringArray{"cardiology"},
		Price:         models.MustMoney("450.00"),
		StockQuantity: 3,
		IsActive:      true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	_, total, err := repo.List(ProductListFilter{OnlyActive: true, Search: "ecg"})
	if err != nil || total != 1 {
		t.Fatalf("search want 1 got %d err=%v", total, err)
	}
	_, total, err = repo.List(ProductListFilter{OnlyActive: true, Tag: "cardiology"})
	if err != nil || total != 1 {
		t.Fatalf("tag search want 1 got %d err=%v", total, err)
	}
}
