package sale

import (
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/product"
	"github.com/shopspring/decimal"
)

func TestSale(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Sale Module Suite")
}

// mockSaleStore implements Repository and Tx over an in-memory product
// map. A returned error discards all staged writes, mirroring rollback.
type mockSaleStore struct {
	products  map[int64]*product.Product
	committed map[int64]*product.Product
	records   []*audit.Record
}

func newMockSaleStore() *mockSaleStore {
	return &mockSaleStore{
		products:  make(map[int64]*product.Product),
		committed: make(map[int64]*product.Product),
	}
}

func (m *mockSaleStore) seed(p *product.Product) *product.Product {
	m.committed[p.ID] = p
	return p
}

func (m *mockSaleStore) RunInTx(fn func(tx Tx) error) error {
	staged := &saleTxMock{
		store:    m,
		products: make(map[int64]*product.Product),
	}
	if err := fn(staged); err != nil {
		return err
	}
	for id, p := range staged.products {
		m.committed[id] = p
	}
	m.records = append(m.records, staged.records...)
	return nil
}

type saleTxMock struct {
	store    *mockSaleStore
	products map[int64]*product.Product
	records  []*audit.Record
}

func (t *saleTxMock) GetProductForUpdate(id int64) (*product.Product, error) {
	if p, ok := t.products[id]; ok {
		return p, nil
	}
	p, ok := t.store.committed[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (t *saleTxMock) SaveProduct(p *product.Product) error {
	t.products[p.ID] = p
	return nil
}

func (t *saleTxMock) CreateRecord(rec *audit.Record) error {
	t.records = append(t.records, rec)
	return nil
}

type mockLedger struct {
	records    []*audit.Record
	gotFilter  audit.ListFilter
	listCalled bool
}

func (m *mockLedger) List(filter audit.ListFilter) ([]*audit.Record, int64, error) {
	m.listCalled = true
	m.gotFilter = filter
	return m.records, int64(len(m.records)), nil
}

func saleTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = ginkgo.Describe("SaleService", func() {
	var (
		service *Service
		store   *mockSaleStore
		ledger  *mockLedger
		meta    audit.RequestMeta
	)

	ginkgo.BeforeEach(func() {
		store = newMockSaleStore()
		ledger = &mockLedger{}
		service = NewService(store, ledger, nil, saleTestLogger())
		meta = audit.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"}

		store.seed(&product.Product{
			ID: 1, Name: "Espresso Beans", Price: decimal.NewFromFloat(18.50),
			StockQuantity: 40, MinStockLevel: 10, IsActive: true,
		})
		store.seed(&product.Product{
			ID: 2, Name: "Ceramic Mug", Price: decimal.NewFromFloat(9.90),
			StockQuantity: 5, MinStockLevel: 3, IsActive: true,
		})
	})

	ginkgo.Describe("ProcessSale", func() {
		ginkgo.It("should price a multi-line sale and decrement stock", func() {
			// Given
			dto := ProcessSaleDTO{
				Items: []SaleItemDTO{
					{ProductID: 1, Quantity: 2},
					{ProductID: 2, Quantity: 1},
				},
				TaxRate: 0.1,
			}

			// When
			receipt, err := service.ProcessSale(7, "cashier", dto, meta)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(receipt.Items).To(gomega.HaveLen(2))

			// 2 x 18.50 + 1 x 9.90 = 46.90; tax 4.69; total 51.59
			gomega.Expect(receipt.Subtotal.StringFixed(2)).To(gomega.Equal("46.90"))
			gomega.Expect(receipt.TaxAmount.StringFixed(2)).To(gomega.Equal("4.69"))
			gomega.Expect(receipt.Total.StringFixed(2)).To(gomega.Equal("51.59"))
			gomega.Expect(receipt.PaymentMethod).To(gomega.Equal("CASH"))
			gomega.Expect(receipt.Cashier).To(gomega.Equal("cashier"))

			gomega.Expect(store.committed[1].StockQuantity).To(gomega.Equal(38))
			gomega.Expect(store.committed[2].StockQuantity).To(gomega.Equal(4))
		})

		ginkgo.It("should write one SALE record per line sharing the sale ID", func() {
			dto := ProcessSaleDTO{
				Items: []SaleItemDTO{
					{ProductID: 1, Quantity: 2},
					{ProductID: 2, Quantity: 1},
				},
			}

			receipt, err := service.ProcessSale(7, "cashier", dto, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(store.records).To(gomega.HaveLen(2))

			for _, rec := range store.records {
				gomega.Expect(rec.Kind).To(gomega.Equal(audit.KindSale))
				gomega.Expect(rec.UserID).To(gomega.Equal(int64(7)))
				gomega.Expect(rec.Metadata["saleId"]).To(gomega.Equal(receipt.SaleID))
				gomega.Expect(rec.Metadata["cashier"]).To(gomega.Equal("cashier"))
			}

			first := store.records[0]
			gomega.Expect(first.Description).To(gomega.Equal("Sale: 2x Espresso Beans @ $18.50"))
			gomega.Expect(first.Amount.StringFixed(2)).To(gomega.Equal("37.00"))
			gomega.Expect(*first.Quantity).To(gomega.Equal(2))
		})

		ginkgo.It("should apply the discount before tax", func() {
			dto := ProcessSaleDTO{
				Items:    []SaleItemDTO{{ProductID: 1, Quantity: 2}},
				TaxRate:  0.1,
				Discount: 7.00,
			}

			receipt, err := service.ProcessSale(7, "cashier", dto, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			// 37.00 - 7.00 = 30.00; tax 3.00; total 33.00
			gomega.Expect(receipt.TaxAmount.StringFixed(2)).To(gomega.Equal("3.00"))
			gomega.Expect(receipt.Total.StringFixed(2)).To(gomega.Equal("33.00"))
		})

		ginkgo.It("should allow a discount larger than the subtotal", func() {
			dto := ProcessSaleDTO{
				Items:    []SaleItemDTO{{ProductID: 2, Quantity: 1}},
				Discount: 20.00,
			}

			receipt, err := service.ProcessSale(7, "cashier", dto, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(receipt.Total.IsNegative()).To(gomega.BeTrue())
			gomega.Expect(receipt.Total.StringFixed(2)).To(gomega.Equal("-10.10"))
		})

		ginkgo.It("should fail the whole sale when a line references an unknown product", func() {
			dto := ProcessSaleDTO{
				Items: []SaleItemDTO{
					{ProductID: 1, Quantity: 2},
					{ProductID: 999, Quantity: 1},
				},
			}

			_, err := service.ProcessSale(7, "cashier", dto, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			appErr, ok := errors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(404))
			gomega.Expect(appErr.Message).To(gomega.ContainSubstring("999"))

			// rollback: no stock change, no records
			gomega.Expect(store.committed[1].StockQuantity).To(gomega.Equal(40))
			gomega.Expect(store.records).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject a line on an inactive product", func() {
			store.seed(&product.Product{
				ID: 3, Name: "Retired Blend", Price: decimal.NewFromInt(12),
				StockQuantity: 10, IsActive: false,
			})

			_, err := service.ProcessSale(7, "cashier", ProcessSaleDTO{
				Items: []SaleItemDTO{{ProductID: 3, Quantity: 1}},
			}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("Retired Blend is not available for sale"))
		})

		ginkgo.It("should reject a line exceeding available stock", func() {
			_, err := service.ProcessSale(7, "cashier", ProcessSaleDTO{
				Items: []SaleItemDTO{{ProductID: 2, Quantity: 6}},
			}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("insufficient stock for Ceramic Mug. Available: 5, Requested: 6"))
			gomega.Expect(store.committed[2].StockQuantity).To(gomega.Equal(5))
		})

		ginkgo.It("should count repeated lines for the same product against the same stock", func() {
			dto := ProcessSaleDTO{
				Items: []SaleItemDTO{
					{ProductID: 2, Quantity: 3},
					{ProductID: 2, Quantity: 3},
				},
			}

			_, err := service.ProcessSale(7, "cashier", dto, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("Available: 2, Requested: 3"))
		})

		ginkgo.It("should reject an empty items array", func() {
			_, err := service.ProcessSale(7, "cashier", ProcessSaleDTO{}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("at least one item"))
		})

		ginkgo.It("should reject a tax rate above 1", func() {
			_, err := service.ProcessSale(7, "cashier", ProcessSaleDTO{
				Items:   []SaleItemDTO{{ProductID: 1, Quantity: 1}},
				TaxRate: 1.5,
			}, meta)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should keep an explicit payment method", func() {
			receipt, err := service.ProcessSale(7, "cashier", ProcessSaleDTO{
				Items:         []SaleItemDTO{{ProductID: 1, Quantity: 1}},
				PaymentMethod: "CARD",
			}, meta)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(receipt.PaymentMethod).To(gomega.Equal("CARD"))
			gomega.Expect(store.records[0].Metadata["paymentMethod"]).To(gomega.Equal("CARD"))
		})
	})

	ginkgo.Describe("History", func() {
		ginkgo.It("should force the filter to SALE records", func() {
			userID := int64(3)
			_, err := service.History(audit.ListFilter{UserID: &userID})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ledger.listCalled).To(gomega.BeTrue())
			gomega.Expect(ledger.gotFilter.Kind).ToNot(gomega.BeNil())
			gomega.Expect(*ledger.gotFilter.Kind).To(gomega.Equal(audit.KindSale))
		})

		ginkgo.It("should page the result envelope", func() {
			ledger.records = []*audit.Record{{ID: 1}, {ID: 2}}

			result, err := service.History(audit.ListFilter{})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Sales).To(gomega.HaveLen(2))
			gomega.Expect(result.Total).To(gomega.Equal(int64(2)))
			gomega.Expect(result.CurrentPage).To(gomega.Equal(1))
		})
	})
})
