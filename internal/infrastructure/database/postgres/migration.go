// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/erp-backend/internal/domain/catalog"
	"github.com/your-org/erp-backend/internal/domain/purchase"
	"github.com/your-org/erp-backend/internal/domain/sales"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"github.com/your-org/erp-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunAutoMigrations runs GORM auto-migrations in dependency order
func RunAutoMigrations(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	err := db.AutoMigrate(
		&user.User{},

		&catalog.Category{},
		&catalog.Supplier{},
		&catalog.Product{},

		&stock.Movement{},

		&purchase.PurchaseOrder{},
		&purchase.PurchaseOrderLine{},
		&purchase.PurchaseInvoice{},
		&purchase.SupplierPerformance{},

		&sales.Customer{},
		&sales.SalesOrder{},
		&sales.SalesOrderLine{},
		&sales.SalesInvoice{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Database migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes the models don't declare
func CreateIndexes(db *gorm.DB) error {
	log.Println("🔄 Creating database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements(product_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_orders_supplier_status ON purchase_orders(supplier_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_sales_orders_customer_status ON sales_orders(customer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_low_stock ON products(stock_quantity, reorder_level) WHERE is_active = true",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds the admin account and the walk-in customer
func SeedInitialData(db *gorm.DB) error {
	log.Println("🔄 Seeding initial data...")

	if err := seedAdminUser(db); err != nil {
		return err
	}
	if err := seedWalkInCustomer(db); err != nil {
		return err
	}
	if err := seedDefaultCategory(db); err != nil {
		return err
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&user.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := user.User{
		Email:     "admin@example.com",
		Password:  string(hash),
		FirstName: "System",
		LastName:  "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("👤 Seeded default admin user (admin@example.com)")
	return nil
}

func seedWalkInCustomer(db *gorm.DB) error {
	var count int64
	if err := db.Model(&sales.Customer{}).Where("email = ?", "walkin@temp.com").Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check walk-in customer: %w", err)
	}
	if count > 0 {
		return nil
	}

	walkIn := sales.Customer{
		Name:     "Walk-in Customer",
		Email:    "walkin@temp.com",
		IsActive: true,
	}
	if err := db.Create(&walkIn).Error; err != nil {
		return fmt.Errorf("failed to seed walk-in customer: %w", err)
	}
	return nil
}

func seedDefaultCategory(db *gorm.DB) error {
	var count int64
	if err := db.Model(&catalog.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	category := catalog.Category{
		Name:        "General",
		Description: "Default category",
	}
	if err := db.Create(&category).Error; err != nil {
		return fmt.Errorf("failed to seed default category: %w", err)
	}
	return nil
}
