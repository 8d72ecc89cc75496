package main

import (
	"errors"
	"io/fs"

	"github.com/medcart/internal/config"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnw("seed_dotenv_load_failed", "error", err)
	}

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBOptions{
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
		LogLevel: cfg.Database.LogLevel,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	products := []models.Product{
		{
			Name:        "Digital Blood Pressure Monitor",
			Description: "Upper-arm automatic BP monitor with irregular heartbeat detection",
			Category:    "diagnostics",
			Tags:        models.StringArray([]string{"bp", "home-care", "cardiology"}),
			ImageURL:    "https://images.unsplash.com/photo-1631815588090-d4bfec5b1ccb?w=800",
			SpecificationsJSON: models.JSON(map[string]interface{}{
				"cuff_size": "22-42 cm",
				"memory":    "2x60 readings",
				"power":     "4xAA / USB-C",
				"warranty":  "2 years",
				"certified": "CDSCO",
			}),
			Price:         models.NewMoneyFromDecimal(decimal.RequireFromString("1899.00")),
			StockQuantity: 120,
			IsActive:      true,
		},
		{
			Name:        "Fingertip Pulse Oximeter",
			Description: "SpO2 and pulse rate readings with OLED display",
			Category:    "diagnostics",
			Tags:        models.StringArray([]string{"spo2", "home-care"}),
			SpecificationsJSON: models.JSON(map[string]interface{}{
				"spo2_range": "70-100%",
				"display":    "OLED",
				"battery":    "2xAAA",
			}),
			Price:         models.NewMoneyFromDecimal(decimal.RequireFromString("1199.00")),
			StockQuantity: 300,
			IsActive:      true,
		},
		{
			Name:        "Oxygen Concentrator 5L",
			Description: "Stationary oxygen concentrator with 93% purity at 5 LPM",
			Category:    "respiratory",
			Tags:        models.StringArray([]string{"oxygen", "respiratory", "icu"}),
			SpecificationsJSON: models.JSON(map[string]interface{}{
				"flow_rate": "0.5-5 LPM",
				"purity":    "93% ±3%",
				"noise":     "≤ 45 dB",
				"weight_kg": 16,
			}),
			Price:         models.NewMoneyFromDecimal(decimal.RequireFromString("32000.00")),
			StockQuantity: 15,
			IsActive:      true,
		},
		{
			Name:        "Semi-Fowler Hospital Bed",
			Description: "Two-function manual bed with side rails and castor wheels",
			Category:    "hospital-furniture",
			Tags:        models.StringArray([]string{"bed", "ward"}),
			SpecificationsJSON: models.JSON(map[string]interface{}{
				"dimensions": "2000x900x500 mm",
				"load_kg":    180,
				"material":   "powder-coated steel",
			}),
			Price:         models.NewMoneyFromDecimal(decimal.RequireFromString("24500.00")),
			StockQuantity: 8,
			IsActive:      true,
		},
		{
			Name:        "Nitrile Examination Gloves (Box of 100)",
			Description: "Powder-free, latex-free disposable gloves",
			Category:    "consumables",
			Tags:        models.StringArray([]string{"gloves", "ppe", "disposable"}),
			SpecificationsJSON: models.JSON(map[string]interface{}{
				"sizes":     []string{"S", "M", "L"},
				"thickness": "4 mil",
			}),
			Price:         models.NewMoneyFromDecimal(decimal.RequireFromString("549.00")),
			StockQuantity: 1000,
			IsActive:      true,
		},
		{
			Name:          "Infrared Forehead Thermometer",
			Description:   "Non-contact thermometer with fever alarm",
			Category:      "diagnostics",
			Tags:          models.StringArray([]string{"fever", "home-care"}),
			Price:         models.NewMoneyFromDecimal(decimal.RequireFromString("1499.00")),
			StockQuantity: 200,
			IsActive:      true,
		},
	}

	for i := range products {
		product := products[i]
		var count int64
		if err := models.DB.Model(&models.Product{}).Where("name = ?", product.Name).Count(&count).Error; err != nil {
			stdLog.Printf("Failed to check product %s: %v", product.Name, err)
			continue
		}
		if count > 0 {
			stdLog.Printf("Product already exists: %s", product.Name)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			continue
		}
		stdLog.Printf("Created product: %s (stock %d)", product.Name, product.StockQuantity)
	}

	stdLog.Println("Seed data completed")
}
