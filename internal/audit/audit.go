package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the accountable action classes recorded in the ledger.
type Kind string

const (
	KindProductAdd    Kind = "PRODUCT_ADD"
	KindProductUpdate Kind = "PRODUCT_UPDATE"
	KindProductDelete Kind = "PRODUCT_DELETE"
	KindStockUpdate   Kind = "STOCK_UPDATE"
	KindSale          Kind = "SALE"
	KindUserCreate    Kind = "USER_CREATE"
	KindUserUpdate    Kind = "USER_UPDATE"
	KindUserDelete    Kind = "USER_DELETE"
	KindLogin         Kind = "LOGIN"
	KindLogout        Kind = "LOGOUT"
)

var AllKinds = []Kind{
	KindProductAdd,
	KindProductUpdate,
	KindProductDelete,
	KindStockUpdate,
	KindSale,
	KindUserCreate,
	KindUserUpdate,
	KindUserDelete,
	KindLogin,
	KindLogout,
}

func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Metadata is the open, kind-specific context map stored as JSON.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		m = Metadata{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}

	return json.Unmarshal(data, m)
}

// RequestMeta carries the requester's network/client details into the ledger.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Record is one immutable ledger entry. Rows are append-only: there is no
// updated_at column and nothing in the codebase updates or deletes them.
type Record struct {
	ID          int64            `json:"id" gorm:"primaryKey"`
	UserID      int64            `json:"user_id" gorm:"column:user_id;not null"`
	Kind        Kind             `json:"transaction_type" gorm:"column:transaction_type;not null"`
	Description string           `json:"description" gorm:"not null"`
	Amount      *decimal.Decimal `json:"amount,omitempty" gorm:"type:numeric(10,2)"`
	ProductID   *int64           `json:"product_id,omitempty" gorm:"column:product_id"`
	Quantity    *int             `json:"quantity,omitempty"`
	Metadata    Metadata         `json:"metadata" gorm:"type:jsonb"`
	IPAddress   string           `json:"ip_address,omitempty" gorm:"column:ip_address"`
	UserAgent   string           `json:"user_agent,omitempty" gorm:"column:user_agent"`
	CreatedAt   time.Time        `json:"created_at" gorm:"column:created_at"`

	// Display-only join data, populated on reads.
	User    *ActorInfo       `json:"user,omitempty" gorm:"-"`
	Product *ProductInfo     `json:"product,omitempty" gorm:"-"`
}

func (Record) TableName() string {
	return "transactions"
}

// ActorInfo is the slice of the acting user shown alongside a ledger entry.
type ActorInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ProductInfo is the slice of the referenced product shown alongside a ledger entry.
type ProductInfo struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	SKU   *string         `json:"sku,omitempty"`
}

// WithRequestMeta copies the requester details onto the record and returns it,
// so call sites can build records in one expression.
func (r *Record) WithRequestMeta(meta RequestMeta) *Record {
	r.IPAddress = meta.IPAddress
	r.UserAgent = meta.UserAgent
	return r
}
