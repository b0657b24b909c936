package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedClear bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if seedClear {
			for _, table := range []string{"transactions", "products", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		staff := []struct {
			Username string
			Email    string
			Role     permissions.Role
		}{
			{"admin", "admin@storefront.local", permissions.RoleAdmin},
			{"manager", "manager@storefront.local", permissions.RoleManager},
			{"cashier", "cashier@storefront.local", permissions.RoleCashier},
		}

		for _, s := range staff {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE username = ? AND record_status = 'active'", s.Username).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", s.Username)
				continue
			}

			perms, _ := json.Marshal(permissions.Defaults(s.Role))
			if err := db.Exec(
				"INSERT INTO users (username, email, password_hash, role, permissions, is_active, record_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, 'active', now(), now())",
				s.Username, s.Email, string(hash), string(s.Role), string(perms),
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", s.Username, err)
			}
			fmt.Printf("Seeded %s user: %s (password: %s)\n", s.Role, s.Username, password)
		}

		products := []struct {
			Name     string
			Price    string
			Stock    int
			SKU      string
			Category string
			MinStock int
		}{
			{"Espresso Beans 1kg", "18.50", 40, "COF-ESP-1KG", "Coffee", 10},
			{"Drip Filter Pack", "4.25", 120, "COF-FLT-100", "Coffee", 25},
			{"Ceramic Mug", "9.90", 35, "MRC-MUG-CER", "Merchandise", 5},
			{"Cold Brew Bottle", "6.75", 18, "COF-CLD-330", "Coffee", 12},
			{"Gift Card $25", "25.00", 200, "GFT-CRD-025", "Gift Cards", 20},
		}

		for _, p := range products {
			var exists int
			row := db.Raw("SELECT 1 FROM products WHERE sku = ? AND record_status = 'active'", p.SKU).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("product %s already exists, skipping\n", p.SKU)
				continue
			}

			if err := db.Exec(
				"INSERT INTO products (name, price, stock_quantity, sku, category, min_stock_level, is_active, record_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, true, 'active', now(), now())",
				p.Name, p.Price, p.Stock, p.SKU, p.Category, p.MinStock,
			).Error; err != nil {
				log.Fatalf("failed to insert product %s: %v", p.SKU, err)
			}
			fmt.Printf("Seeded product: %s (%s)\n", p.Name, p.SKU)
		}

		fmt.Println("Seeding complete")
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "Delete existing users, products and transactions before seeding")
}
