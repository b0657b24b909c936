package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
)

func TestAuditRepositories(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AuditRepository Suite")
}

type SQLiteUser struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"not null"`
	Email        string `gorm:"not null"`
	PasswordHash string `gorm:"column:password_hash"`
	Role         string `gorm:"not null;default:CASHIER"`
	Permissions  string `gorm:"default:'{}'"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true"`
	LastLogin    *time.Time
	RecordStatus string `gorm:"column:record_status;not null;default:active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SQLiteUser) TableName() string {
	return "users"
}

type SQLiteProduct struct {
	ID            int64  `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Price         string `gorm:"not null"`
	StockQuantity int    `gorm:"column:stock_quantity;not null;default:0"`
	SKU           *string
	MinStockLevel int    `gorm:"column:min_stock_level;not null;default:10"`
	IsActive      bool   `gorm:"column:is_active;not null;default:true"`
	RecordStatus  string `gorm:"column:record_status;not null;default:active"`
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

var _ = Describe("AuditRepository", func() {
	var (
		db   *gorm.DB
		repo audit.Repository
	)

	seedUser := func(username, role string) int64 {
		u := &SQLiteUser{Username: username, Email: username + "@example.com", Role: role, RecordStatus: "active"}
		Expect(db.Create(u).Error).NotTo(HaveOccurred())
		return u.ID
	}

	seedProduct := func(name string) int64 {
		p := &SQLiteProduct{Name: name, Price: "18.50", RecordStatus: "active"}
		Expect(db.Create(p).Error).NotTo(HaveOccurred())
		return p.ID
	}

	seedRecord := func(userID int64, kind audit.Kind, productID *int64, at time.Time) *audit.Record {
		rec := &audit.Record{
			UserID:      userID,
			Kind:        kind,
			Description: "test",
			ProductID:   productID,
			Metadata:    audit.Metadata{},
			CreatedAt:   at,
		}
		Expect(db.Create(rec).Error).NotTo(HaveOccurred())
		return rec
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteUser{}, &SQLiteProduct{}, &SQLiteTransaction{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewAuditRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("GetByID", func() {
		It("should return a record with actor and product display info", func() {
			userID := seedUser("cashier1", "CASHIER")
			productID := seedProduct("Espresso Beans")
			rec := seedRecord(userID, audit.KindSale, &productID, time.Now().UTC())

			found, err := repo.GetByID(rec.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(found.Kind).To(Equal(audit.KindSale))
			Expect(found.User).NotTo(BeNil())
			Expect(found.User.Username).To(Equal("cashier1"))
			Expect(found.Product).NotTo(BeNil())
			Expect(found.Product.Name).To(Equal("Espresso Beans"))
		})

		It("should return the not found sentinel for a missing record", func() {
			_, err := repo.GetByID(999)

			Expect(err).To(Equal(errors.ErrTransactionNotFound))
		})

		It("should resolve display info for soft deleted users", func() {
			userID := seedUser("gone", "CASHIER")
			Expect(db.Model(&SQLiteUser{}).Where("id = ?", userID).Update("record_status", "deleted").Error).NotTo(HaveOccurred())
			rec := seedRecord(userID, audit.KindLogin, nil, time.Now().UTC())

			found, err := repo.GetByID(rec.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(found.User).NotTo(BeNil())
			Expect(found.User.Username).To(Equal("gone"))
		})
	})

	Describe("List", func() {
		var (
			cashierID int64
			managerID int64
			productID int64
		)

		BeforeEach(func() {
			cashierID = seedUser("cashier1", "CASHIER")
			managerID = seedUser("manager1", "MANAGER")
			productID = seedProduct("Espresso Beans")

			now := time.Now().UTC()
			seedRecord(cashierID, audit.KindSale, &productID, now.Add(-2*time.Hour))
			seedRecord(cashierID, audit.KindLogin, nil, now.Add(-1*time.Hour))
			seedRecord(managerID, audit.KindStockUpdate, &productID, now)
		})

		It("should return everything with a neutral filter", func() {
			filter := audit.ListFilter{}
			filter.Normalize()

			records, total, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
			Expect(records).To(HaveLen(3))
		})

		It("should order newest first by default", func() {
			filter := audit.ListFilter{}
			filter.Normalize()

			records, _, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(records[0].Kind).To(Equal(audit.KindStockUpdate))
		})

		It("should filter by kind", func() {
			kind := audit.KindSale
			filter := audit.ListFilter{Kind: &kind}
			filter.Normalize()

			records, total, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(records[0].Kind).To(Equal(audit.KindSale))
		})

		It("should filter by user", func() {
			filter := audit.ListFilter{UserID: &cashierID}
			filter.Normalize()

			_, total, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
		})

		It("should filter by product", func() {
			filter := audit.ListFilter{ProductID: &productID}
			filter.Normalize()

			_, total, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
		})

		It("should filter by username substring", func() {
			username := "manager"
			filter := audit.ListFilter{Username: &username}
			filter.Normalize()

			records, total, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(records[0].UserID).To(Equal(managerID))
		})

		It("should page results", func() {
			filter := audit.ListFilter{Page: 2, Limit: 2}
			filter.Normalize()

			records, total, err := repo.List(filter)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
			Expect(records).To(HaveLen(1))
		})
	})
})

var _ = Describe("ReportsRepository", func() {
	var (
		db      *gorm.DB
		sqlxDB  *sqlx.DB
		reports audit.ReportsRepository
	)

	amountPtr := func(v string) *string { return &v }
	intPtr := func(v int) *int { return &v }

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteUser{}, &SQLiteProduct{}, &SQLiteTransaction{})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlxDB = sqlx.NewDb(sqlDB, "sqlite3")

		reports = NewReportsRepository(sqlxDB)

		user := &SQLiteUser{Username: "cashier1", Email: "c1@example.com", Role: "CASHIER", RecordStatus: "active"}
		Expect(db.Create(user).Error).NotTo(HaveOccurred())

		beans := &SQLiteProduct{Name: "Espresso Beans", Price: "18.50", RecordStatus: "active"}
		mug := &SQLiteProduct{Name: "Ceramic Mug", Price: "9.90", RecordStatus: "active"}
		Expect(db.Create(beans).Error).NotTo(HaveOccurred())
		Expect(db.Create(mug).Error).NotTo(HaveOccurred())

		now := time.Now().UTC()
		rows := []*SQLiteTransaction{
			{UserID: user.ID, TransactionType: "SALE", Description: "sale", Amount: amountPtr("37.00"), ProductID: &beans.ID, Quantity: intPtr(2), CreatedAt: now},
			{UserID: user.ID, TransactionType: "SALE", Description: "sale", Amount: amountPtr("9.90"), ProductID: &mug.ID, Quantity: intPtr(1), CreatedAt: now},
			{UserID: user.ID, TransactionType: "LOGIN", Description: "login", CreatedAt: now},
		}
		for _, row := range rows {
			Expect(db.Create(row).Error).NotTo(HaveOccurred())
		}
	})

	AfterEach(func() {
		Expect(sqlxDB.Close()).To(Succeed())
	})

	Describe("StatsSummary", func() {
		It("should count entries by type and by active user", func() {
			summary, err := reports.StatsSummary(nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.TransactionsByType).To(HaveLen(2))
			Expect(summary.TransactionsByType[0].Kind).To(Equal(audit.KindSale))
			Expect(summary.TransactionsByType[0].Count).To(Equal(int64(2)))

			Expect(summary.ActiveUsers).To(HaveLen(1))
			Expect(summary.ActiveUsers[0].Username).To(Equal("cashier1"))
			Expect(summary.ActiveUsers[0].TransactionCount).To(Equal(int64(3)))
		})
	})

	Describe("SalesTotals", func() {
		It("should sum only SALE entries in the window", func() {
			start := time.Now().UTC().Add(-24 * time.Hour)
			end := time.Now().UTC().Add(24 * time.Hour)

			totals, err := reports.SalesTotals(start, end)

			Expect(err).NotTo(HaveOccurred())
			Expect(totals.TotalTransactions).To(Equal(int64(2)))
			Expect(totals.TotalQuantity).To(Equal(int64(3)))
			Expect(totals.TotalSales.StringFixed(2)).To(Equal("46.90"))
		})

		It("should return zero totals for an empty window", func() {
			start := time.Now().UTC().Add(-48 * time.Hour)
			end := time.Now().UTC().Add(-24 * time.Hour)

			totals, err := reports.SalesTotals(start, end)

			Expect(err).NotTo(HaveOccurred())
			Expect(totals.TotalTransactions).To(BeZero())
			Expect(totals.TotalQuantity).To(BeZero())
			Expect(totals.TotalSales.IsZero()).To(BeTrue())
		})
	})

	Describe("TopProducts", func() {
		It("should rank products by quantity sold", func() {
			start := time.Now().UTC().Add(-24 * time.Hour)
			end := time.Now().UTC().Add(24 * time.Hour)

			top, err := reports.TopProducts(start, end, 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(top).To(HaveLen(2))
			Expect(top[0].ProductName).To(Equal("Espresso Beans"))
			Expect(top[0].TotalQuantity).To(Equal(int64(2)))
		})
	})

	Describe("DailySalesBreakdown", func() {
		It("should group sales by day", func() {
			start := time.Now().UTC().Add(-24 * time.Hour)
			end := time.Now().UTC().Add(24 * time.Hour)

			daily, err := reports.DailySalesBreakdown(start, end)

			Expect(err).NotTo(HaveOccurred())
			Expect(daily).To(HaveLen(1))
			Expect(daily[0].TotalTransactions).To(Equal(int64(2)))
		})
	})
})
