package product

import (
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/shopspring/decimal"
)

func TestProduct(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Product Module Suite")
}

// Mock repository for testing
type mockProductRepository struct {
	products      map[int64]*Product
	bySKU         map[string]*Product
	nextID        int64
	records       []*audit.Record
	returnError   bool
	errorToReturn error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[int64]*Product),
		bySKU:    make(map[string]*Product),
		nextID:   1,
	}
}

func (m *mockProductRepository) seed(p *Product) *Product {
	p.ID = m.nextID
	m.nextID++
	p.RecordStatus = RecordStatusActive
	m.products[p.ID] = p
	if p.SKU != nil {
		m.bySKU[*p.SKU] = p
	}
	return p
}

func (m *mockProductRepository) Create(p *Product, rec *audit.Record) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.seed(p)
	rec.ProductID = &p.ID
	m.records = append(m.records, rec)
	return nil
}

func (m *mockProductRepository) GetByID(id int64) (*Product, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	p, ok := m.products[id]
	if !ok || p.RecordStatus != RecordStatusActive {
		return nil, errors.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) GetBySKU(sku string) (*Product, error) {
	p, ok := m.bySKU[sku]
	if !ok || p.RecordStatus != RecordStatusActive {
		return nil, errors.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) List(filter ListFilter) ([]*Product, int64, error) {
	if m.returnError {
		return nil, 0, m.errorToReturn
	}
	var result []*Product
	for _, p := range m.products {
		if p.RecordStatus == RecordStatusActive {
			result = append(result, p)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockProductRepository) LowStock() ([]*Product, error) {
	var result []*Product
	for _, p := range m.products {
		if p.RecordStatus == RecordStatusActive && p.IsLowStock() {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockProductRepository) Update(p *Product, rec *audit.Record) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.products[p.ID] = p
	m.records = append(m.records, rec)
	return nil
}

func (m *mockProductRepository) UpdateStock(id int64, apply func(p *Product) *audit.Record) (*Product, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	p, ok := m.products[id]
	if !ok || p.RecordStatus != RecordStatusActive {
		return nil, errors.ErrProductNotFound
	}
	rec := apply(p)
	m.records = append(m.records, rec)
	return p, nil
}

func (m *mockProductRepository) SoftDelete(p *Product, rec *audit.Record) error {
	if m.returnError {
		return m.errorToReturn
	}
	p.RecordStatus = RecordStatusDeleted
	m.records = append(m.records, rec)
	return nil
}

func (m *mockProductRepository) lastRecord() *audit.Record {
	if len(m.records) == 0 {
		return nil
	}
	return m.records[len(m.records)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var _ = ginkgo.Describe("ProductService", func() {
	var (
		service  *Service
		mockRepo *mockProductRepository
		meta     audit.RequestMeta
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockProductRepository()
		service = NewService(mockRepo, nil, testLogger())
		meta = audit.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"}
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should create a product and write a PRODUCT_ADD record", func() {
			// Given
			dto := CreateProductDTO{
				Name:          "Espresso Beans",
				Price:         18.50,
				StockQuantity: 40,
				SKU:           strPtr("COF-ESP-1KG"),
			}

			// When
			p, err := service.Create(1, "admin", dto, meta)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.ID).ToNot(gomega.BeZero())
			gomega.Expect(p.Price.Equal(decimal.NewFromFloat(18.50))).To(gomega.BeTrue())
			gomega.Expect(p.IsActive).To(gomega.BeTrue())

			rec := mockRepo.lastRecord()
			gomega.Expect(rec).ToNot(gomega.BeNil())
			gomega.Expect(rec.Kind).To(gomega.Equal(audit.KindProductAdd))
			gomega.Expect(rec.UserID).To(gomega.Equal(int64(1)))
			gomega.Expect(*rec.ProductID).To(gomega.Equal(p.ID))
			gomega.Expect(rec.Metadata["addedBy"]).To(gomega.Equal("admin"))
			gomega.Expect(rec.IPAddress).To(gomega.Equal("10.0.0.1"))
		})

		ginkgo.It("should default the minimum stock level to 10", func() {
			p, err := service.Create(1, "admin", CreateProductDTO{Name: "Mug", Price: 9.90}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.MinStockLevel).To(gomega.Equal(10))
		})

		ginkgo.It("should honor an explicit minimum stock level", func() {
			dto := CreateProductDTO{Name: "Mug", Price: 9.90, MinStockLevel: intPtr(3)}

			p, err := service.Create(1, "admin", dto, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.MinStockLevel).To(gomega.Equal(3))
		})

		ginkgo.It("should reject a duplicate SKU", func() {
			mockRepo.seed(&Product{Name: "Existing", SKU: strPtr("DUP-001"), Price: decimal.NewFromInt(5)})

			_, err := service.Create(1, "admin", CreateProductDTO{Name: "New", Price: 1, SKU: strPtr("DUP-001")}, meta)

			gomega.Expect(err).To(gomega.Equal(errors.ErrDuplicateSKU))
			gomega.Expect(mockRepo.records).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject a missing name", func() {
			_, err := service.Create(1, "admin", CreateProductDTO{Price: 1}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			appErr, ok := errors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
		})

		ginkgo.It("should reject a negative price", func() {
			_, err := service.Create(1, "admin", CreateProductDTO{Name: "Bad", Price: -1}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should apply only the provided fields", func() {
			p := mockRepo.seed(&Product{Name: "Old Name", Price: decimal.NewFromInt(10), StockQuantity: 5, MinStockLevel: 2})

			updated, err := service.Update(1, "admin", p.ID, UpdateProductDTO{Name: strPtr("New Name")}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Name).To(gomega.Equal("New Name"))
			gomega.Expect(updated.StockQuantity).To(gomega.Equal(5))

			rec := mockRepo.lastRecord()
			gomega.Expect(rec.Kind).To(gomega.Equal(audit.KindProductUpdate))
			newValues := rec.Metadata["newValues"].(audit.Metadata)
			gomega.Expect(newValues).To(gomega.HaveKey("name"))
			gomega.Expect(newValues).ToNot(gomega.HaveKey("price"))
		})

		ginkgo.It("should return not found for an unknown product", func() {
			_, err := service.Update(1, "admin", 999, UpdateProductDTO{Name: strPtr("X")}, meta)

			gomega.Expect(err).To(gomega.Equal(errors.ErrProductNotFound))
		})

		ginkgo.It("should reject changing the SKU to one already taken", func() {
			mockRepo.seed(&Product{Name: "A", SKU: strPtr("SKU-A"), Price: decimal.NewFromInt(1)})
			b := mockRepo.seed(&Product{Name: "B", SKU: strPtr("SKU-B"), Price: decimal.NewFromInt(1)})

			_, err := service.Update(1, "admin", b.ID, UpdateProductDTO{SKU: strPtr("SKU-A")}, meta)

			gomega.Expect(err).To(gomega.Equal(errors.ErrDuplicateSKU))
		})

		ginkgo.It("should allow resubmitting the product's own SKU", func() {
			p := mockRepo.seed(&Product{Name: "A", SKU: strPtr("SKU-A"), Price: decimal.NewFromInt(1)})

			_, err := service.Update(1, "admin", p.ID, UpdateProductDTO{SKU: strPtr("SKU-A")}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("UpdateStock", func() {
		var p *Product

		ginkgo.BeforeEach(func() {
			p = mockRepo.seed(&Product{Name: "Beans", Price: decimal.NewFromInt(10), StockQuantity: 20, MinStockLevel: 5})
		})

		ginkgo.It("should add stock", func() {
			updated, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: 5, Operation: StockOpAdd}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.StockQuantity).To(gomega.Equal(25))

			rec := mockRepo.lastRecord()
			gomega.Expect(rec.Kind).To(gomega.Equal(audit.KindStockUpdate))
			gomega.Expect(*rec.Quantity).To(gomega.Equal(5))
			gomega.Expect(rec.Metadata["oldStock"]).To(gomega.Equal(20))
			gomega.Expect(rec.Metadata["newStock"]).To(gomega.Equal(25))
		})

		ginkgo.It("should record subtraction as a negative quantity", func() {
			_, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: 8, Operation: StockOpSubtract}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(*mockRepo.lastRecord().Quantity).To(gomega.Equal(-8))
		})

		ginkgo.It("should clamp subtraction at zero", func() {
			updated, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: 100, Operation: StockOpSubtract}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.StockQuantity).To(gomega.Equal(0))
		})

		ginkgo.It("should set stock to an absolute value", func() {
			updated, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: 3, Operation: StockOpSet}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.StockQuantity).To(gomega.Equal(3))
		})

		ginkgo.It("should clamp a negative set to zero", func() {
			updated, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: -5, Operation: StockOpSet}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.StockQuantity).To(gomega.Equal(0))

			rec := mockRepo.lastRecord()
			gomega.Expect(rec.Metadata["oldStock"]).To(gomega.Equal(20))
			gomega.Expect(rec.Metadata["newStock"]).To(gomega.Equal(0))
		})

		ginkgo.It("should reject a negative add", func() {
			_, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: -5, Operation: StockOpAdd}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(mockRepo.records).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject a negative subtract", func() {
			_, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: -5, Operation: StockOpSubtract}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(mockRepo.records).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject an unknown operation", func() {
			_, err := service.UpdateStock(1, "admin", p.ID, UpdateStockDTO{Quantity: 1, Operation: "double"}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should soft delete and write a PRODUCT_DELETE record", func() {
			p := mockRepo.seed(&Product{Name: "Beans", SKU: strPtr("SKU-X"), Price: decimal.NewFromInt(10), StockQuantity: 7})

			err := service.Delete(1, "admin", p.ID, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.RecordStatus).To(gomega.Equal(RecordStatusDeleted))

			rec := mockRepo.lastRecord()
			gomega.Expect(rec.Kind).To(gomega.Equal(audit.KindProductDelete))
			gomega.Expect(rec.Metadata["stockAtDeletion"]).To(gomega.Equal(7))
		})

		ginkgo.It("should hide a deleted product from lookups", func() {
			p := mockRepo.seed(&Product{Name: "Beans", Price: decimal.NewFromInt(10)})
			gomega.Expect(service.Delete(1, "admin", p.ID, meta)).To(gomega.Succeed())

			_, err := service.GetByID(p.ID)

			gomega.Expect(err).To(gomega.Equal(errors.ErrProductNotFound))
		})

		ginkgo.It("should return not found for an unknown product", func() {
			err := service.Delete(1, "admin", 42, meta)

			gomega.Expect(err).To(gomega.Equal(errors.ErrProductNotFound))
		})
	})

	ginkgo.Describe("LowStock", func() {
		ginkgo.It("should return products at or below their minimum level", func() {
			mockRepo.seed(&Product{Name: "Low", Price: decimal.NewFromInt(1), StockQuantity: 2, MinStockLevel: 5})
			mockRepo.seed(&Product{Name: "Fine", Price: decimal.NewFromInt(1), StockQuantity: 50, MinStockLevel: 5})

			products, err := service.LowStock()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(products).To(gomega.HaveLen(1))
			gomega.Expect(products[0].Name).To(gomega.Equal("Low"))
		})
	})
})
