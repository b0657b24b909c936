package postgres

import (
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/product"
	"github.com/frahmantamala/storefront-pos/internal/sale"
	"github.com/shopspring/decimal"
)

func TestSaleRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SaleRepository Suite")
}

type SQLiteProduct struct {
	ID            int64   `gorm:"primaryKey"`
	Name          string  `gorm:"not null"`
	Description   *string `gorm:"column:description"`
	Price         string  `gorm:"column:price;not null"`
	StockQuantity int     `gorm:"column:stock_quantity;not null;default:0"`
	SKU           *string `gorm:"column:sku"`
	Category      *string `gorm:"column:category"`
	Supplier      *string `gorm:"column:supplier"`
	MinStockLevel int     `gorm:"column:min_stock_level;not null;default:10"`
	IsActive      bool    `gorm:"column:is_active;not null;default:true"`
	RecordStatus  string  `gorm:"column:record_status;not null;default:active"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SQLiteProduct) TableName() string {
	return "products"
}

type SQLiteTransaction struct {
	ID              int64  `gorm:"primaryKey"`
	UserID          int64  `gorm:"column:user_id;not null"`
	TransactionType string `gorm:"column:transaction_type;not null"`
	Description     string `gorm:"column:description;not null"`
	Amount          *string
	ProductID       *int64 `gorm:"column:product_id"`
	Quantity        *int
	Metadata        *string
	IPAddress       *string `gorm:"column:ip_address"`
	UserAgent       *string `gorm:"column:user_agent"`
	CreatedAt       time.Time
}

func (SQLiteTransaction) TableName() string {
	return "transactions"
}

var _ = Describe("SaleRepository", func() {
	var (
		db   *gorm.DB
		repo sale.Repository
	)

	seedProduct := func(name string, price float64, stock int) *product.Product {
		p := &product.Product{
			Name:          name,
			Price:         decimal.NewFromFloat(price),
			StockQuantity: stock,
			MinStockLevel: 5,
			IsActive:      true,
			RecordStatus:  product.RecordStatusActive,
		}
		Expect(db.Create(p).Error).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteProduct{}, &SQLiteTransaction{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewSaleRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("RunInTx", func() {
		It("should commit stock changes and ledger records together", func() {
			p := seedProduct("Espresso Beans", 18.50, 40)

			err := repo.RunInTx(func(tx sale.Tx) error {
				got, err := tx.GetProductForUpdate(p.ID)
				if err != nil {
					return err
				}

				got.ApplyStockOperation(product.StockOpSubtract, 2)
				if err := tx.SaveProduct(got); err != nil {
					return err
				}

				amount := decimal.NewFromFloat(37.00)
				return tx.CreateRecord(&audit.Record{
					UserID:      1,
					Kind:        audit.KindSale,
					Description: "Sale: 2x Espresso Beans @ $18.50",
					Amount:      &amount,
					ProductID:   &got.ID,
					Metadata:    audit.Metadata{"saleId": "SALE_1_1"},
				})
			})

			Expect(err).NotTo(HaveOccurred())

			var stored SQLiteProduct
			Expect(db.First(&stored, p.ID).Error).NotTo(HaveOccurred())
			Expect(stored.StockQuantity).To(Equal(38))

			var recCount int64
			Expect(db.Model(&SQLiteTransaction{}).Count(&recCount).Error).NotTo(HaveOccurred())
			Expect(recCount).To(Equal(int64(1)))
		})

		It("should roll back everything when the callback fails", func() {
			p := seedProduct("Espresso Beans", 18.50, 40)

			err := repo.RunInTx(func(tx sale.Tx) error {
				got, err := tx.GetProductForUpdate(p.ID)
				if err != nil {
					return err
				}

				got.ApplyStockOperation(product.StockOpSubtract, 2)
				if err := tx.SaveProduct(got); err != nil {
					return err
				}
				if err := tx.CreateRecord(&audit.Record{
					UserID: 1, Kind: audit.KindSale, Description: "partial", Metadata: audit.Metadata{},
				}); err != nil {
					return err
				}

				return fmt.Errorf("second line failed")
			})

			Expect(err).To(HaveOccurred())

			var stored SQLiteProduct
			Expect(db.First(&stored, p.ID).Error).NotTo(HaveOccurred())
			Expect(stored.StockQuantity).To(Equal(40))

			var recCount int64
			Expect(db.Model(&SQLiteTransaction{}).Count(&recCount).Error).NotTo(HaveOccurred())
			Expect(recCount).To(BeZero())
		})

		It("should surface the not found sentinel for unknown products", func() {
			err := repo.RunInTx(func(tx sale.Tx) error {
				_, err := tx.GetProductForUpdate(999)
				return err
			})

			Expect(err).To(Equal(errors.ErrProductNotFound))
		})

		It("should not read soft deleted products", func() {
			p := seedProduct("Gone", 5.00, 10)
			Expect(db.Model(&SQLiteProduct{}).Where("id = ?", p.ID).Update("record_status", product.RecordStatusDeleted).Error).NotTo(HaveOccurred())

			err := repo.RunInTx(func(tx sale.Tx) error {
				_, err := tx.GetProductForUpdate(p.ID)
				return err
			})

			Expect(err).To(Equal(errors.ErrProductNotFound))
		})

		It("should see writes from earlier in the same transaction", func() {
			p := seedProduct("Espresso Beans", 18.50, 10)

			err := repo.RunInTx(func(tx sale.Tx) error {
				first, err := tx.GetProductForUpdate(p.ID)
				if err != nil {
					return err
				}
				first.ApplyStockOperation(product.StockOpSubtract, 4)
				if err := tx.SaveProduct(first); err != nil {
					return err
				}

				second, err := tx.GetProductForUpdate(p.ID)
				if err != nil {
					return err
				}
				Expect(second.StockQuantity).To(Equal(6))
				return nil
			})

			Expect(err).NotTo(HaveOccurred())
		})
	})
})
