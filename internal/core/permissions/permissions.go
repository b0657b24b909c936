package permissions

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// Capability names one action class a user may be granted, independent of
// role. The set is closed: checks against anything outside this enumeration
// always deny.
type Capability string

const (
	CapViewProducts     Capability = "canViewProducts"
	CapAddProducts      Capability = "canAddProducts"
	CapEditProducts     Capability = "canEditProducts"
	CapDeleteProducts   Capability = "canDeleteProducts"
	CapViewUsers        Capability = "canViewUsers"
	CapAddUsers         Capability = "canAddUsers"
	CapEditUsers        Capability = "canEditUsers"
	CapDeleteUsers      Capability = "canDeleteUsers"
	CapProcessSales     Capability = "canProcessSales"
	CapViewTransactions Capability = "canViewTransactions"
	CapViewReports      Capability = "canViewReports"
)

// AllCapabilities is the exhaustive enumeration, in the order the flags
// appear on the wire.
var AllCapabilities = []Capability{
	CapViewProducts,
	CapAddProducts,
	CapEditProducts,
	CapDeleteProducts,
	CapViewUsers,
	CapAddUsers,
	CapEditUsers,
	CapDeleteUsers,
	CapProcessSales,
	CapViewTransactions,
	CapViewReports,
}

// Set holds one boolean per capability. Flags absent from the stored JSON
// read as false.
type Set map[Capability]bool

// Defaults returns the fixed default flag set for a role. Unknown roles get
// cashier defaults, matching how accounts were provisioned historically.
func Defaults(role Role) Set {
	switch role {
	case RoleAdmin:
		s := make(Set, len(AllCapabilities))
		for _, c := range AllCapabilities {
			s[c] = true
		}
		return s
	case RoleManager:
		return Set{
			CapViewProducts:     true,
			CapAddProducts:      true,
			CapEditProducts:     true,
			CapDeleteProducts:   false,
			CapViewUsers:        true,
			CapAddUsers:         false,
			CapEditUsers:        false,
			CapDeleteUsers:      false,
			CapProcessSales:     true,
			CapViewTransactions: true,
			CapViewReports:      true,
		}
	default:
		return Set{
			CapViewProducts:     true,
			CapAddProducts:      false,
			CapEditProducts:     false,
			CapDeleteProducts:   false,
			CapViewUsers:        false,
			CapAddUsers:         false,
			CapEditUsers:        false,
			CapDeleteUsers:      false,
			CapProcessSales:     true,
			CapViewTransactions: false,
			CapViewReports:      false,
		}
	}
}

// Allowed is the permission gate: ADMIN passes regardless of flags, every
// other role passes only when the flag is set.
func Allowed(role Role, set Set, cap Capability) bool {
	if role == RoleAdmin {
		return true
	}
	return set[cap]
}

// Merge returns a copy of s with the given overrides applied. Only known
// capabilities are merged; stray keys cannot drift into the stored set.
func (s Set) Merge(overrides map[Capability]bool) Set {
	merged := make(Set, len(AllCapabilities))
	for _, c := range AllCapabilities {
		merged[c] = s[c]
	}
	for _, c := range AllCapabilities {
		if v, ok := overrides[c]; ok {
			merged[c] = v
		}
	}
	return merged
}

// Value stores the set as a JSON object of capability flags.
func (s Set) Value() (driver.Value, error) {
	if s == nil {
		s = Set{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Set) Scan(value interface{}) error {
	if value == nil {
		*s = Set{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported permission set column type %T", value)
	}

	return json.Unmarshal(data, s)
}
