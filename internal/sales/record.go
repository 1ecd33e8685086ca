package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical civil date layout used in keys, queries and JSON.
const DateLayout = "2006-01-02"

// Record is one immutable row of the sales dataset.
type Record struct {
	Date    time.Time       `json:"date"`
	Product string          `json:"product"`
	Seller  string          `json:"seller"`
	Region  string          `json:"region"`
	Amount  decimal.Decimal `json:"amount"`
	// Fields keeps the raw source cells in the dataset's column order.
	Fields []string `json:"fields,omitempty"`
}

// Civil truncates t to a date at midnight UTC.
func Civil(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Role identifies which record attribute a dataset column feeds.
type Role int

// Column roles. RoleNone marks extra columns that are only carried through.
const (
	RoleNone Role = iota
	RoleDate
	RoleProduct
	RoleSeller
	RoleRegion
	RoleAmount
)

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleProduct:
		return "product"
	case RoleSeller:
		return "seller"
	case RoleRegion:
		return "region"
	case RoleAmount:
		return "amount"
	default:
		return "extra"
	}
}

// ColumnMap names the source columns backing each record attribute.
type ColumnMap struct {
	Date    string
	Product string
	Seller  string
	Region  string
	Amount  string
}

// DefaultColumns matches the headers of the Bit Shop sales exports.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Date:    "data",
		Product: "produto",
		Seller:  "vendedor",
		Region:  "região",
		Amount:  "total",
	}
}

// RoleOf reports the role of the named column.
func (c ColumnMap) RoleOf(name string) Role {
	if name == "" {
		return RoleNone
	}
	switch name {
	case c.Date:
		return RoleDate
	case c.Product:
		return RoleProduct
	case c.Seller:
		return RoleSeller
	case c.Region:
		return RoleRegion
	case c.Amount:
		return RoleAmount
	default:
		return RoleNone
	}
}

func (c ColumnMap) required() []string {
	return []string{c.Date, c.Product, c.Seller, c.Region, c.Amount}
}
