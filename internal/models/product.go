package models

import "time"

// ProductSort enumerates the sort keys accepted by the catalog query string.
// Anything outside this set falls back to newest-first.
type ProductSort string

const (
	SortLowPrice  ProductSort = "low-price"
	SortHighPrice ProductSort = "high-price"
	SortNewest    ProductSort = "newest"
	SortOldest    ProductSort = "oldest"
)

// Category groups products; products reference it many-to-one.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(120)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product represents a product in the store. Price is stored in integer
// currency units. Slug is unique and always derived from Name on write.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(120)"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	Price       int       `json:"price" validate:"gte=0"`
	Images      []string  `json:"images" gorm:"serializer:json"`
	CategoryID  uint      `json:"category_id"`
	Category    Category  `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductList is the catalog page payload: one window of products plus the
// total matching the filter, so clients can compute page counts.
type ProductList struct {
	Products []Product `json:"products"`
	Length   int64     `json:"length"`
}
