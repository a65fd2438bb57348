package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultUnit = "pcs"

type Item struct {
	ID                int64           `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	Cost              decimal.Decimal `json:"cost"`
	Price             decimal.Decimal `json:"price"`
	MinStock          decimal.Decimal `json:"min_stock"`
	Category          string          `json:"category"`
	DefaultSupplierID *int64          `json:"default_supplier_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type Supplier struct {
	ID        int64     `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemInput is the upsert payload; ID == 0 creates a new item.
type ItemInput struct {
	ID                int64           `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	Cost              decimal.Decimal `json:"cost"`
	Price             decimal.Decimal `json:"price"`
	MinStock          decimal.Decimal `json:"min_stock"`
	Category          string          `json:"category"`
	DefaultSupplierID *int64          `json:"default_supplier_id"`
}

// SupplierInput is the upsert payload; ID == 0 creates a new supplier.
type SupplierInput struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
