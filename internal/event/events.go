package event

const (
	TopicProductCreated       = "product.created"
	TopicProductUpdated       = "product.updated"
	TopicProductDeactivated   = "product.deactivated"
	TopicProductDeleted       = "product.deleted"
	TopicProductStockAdjusted = "product.stock_adjusted"
)

type ProductCreatedEvent struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Category  string  `json:"category,omitempty"`
}

type ProductUpdatedEvent struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Category  string  `json:"category,omitempty"`
	Status    string  `json:"status"`
}

type ProductDeactivatedEvent struct {
	ProductID int64 `json:"product_id"`
}

type ProductDeletedEvent struct {
	ProductID int64 `json:"product_id"`
}

type ProductStockAdjustedEvent struct {
	ProductID int64  `json:"product_id"`
	Sku       string `json:"sku"`
	Delta     int    `json:"delta"`
	Stock     int    `json:"stock"`
}
