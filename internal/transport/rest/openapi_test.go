package rest

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Transport Suite")
}

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()

		var err error
		doc, err = loader.LoadFromFile("../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())

		Expect(doc.Validate(loader.Context)).To(Succeed())
	})

	It("should document every mounted route group", func() {
		for _, path := range []string{
			"/auth/register",
			"/auth/login",
			"/auth/refresh",
			"/auth/logout",
			"/auth/me",
			"/products",
			"/products/low-stock",
			"/products/{id}",
			"/products/{id}/stock",
			"/users",
			"/users/{id}",
			"/sales",
			"/sales/history",
			"/sales/reports/daily",
			"/sales/reports/period",
			"/transactions",
			"/transactions/types",
			"/transactions/stats/summary",
			"/transactions/user/{userId}",
			"/transactions/product/{productId}",
			"/transactions/{id}",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), path)
		}
	})

	It("should require bearer auth by default", func() {
		Expect(doc.Security).NotTo(BeEmpty())
		scheme := doc.Components.SecuritySchemes["bearerAuth"]
		Expect(scheme).NotTo(BeNil())
		Expect(scheme.Value.Scheme).To(Equal("bearer"))
	})

	It("should enumerate the ledger entry types", func() {
		kinds := doc.Components.Schemas["TransactionType"]
		Expect(kinds).NotTo(BeNil())
		Expect(kinds.Value.Enum).To(HaveLen(10))
	})
})
