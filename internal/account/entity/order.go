package entity

import (
	"time"
)

// ReturnWindow is how long after delivery an order can be returned.
const ReturnWindow = 30 * 24 * time.Hour

type OrderStatus string

const (
	OrderStatusPendingPayment   OrderStatus = "pending_payment"
	OrderStatusConfirmed        OrderStatus = "confirmed"
	OrderStatusProcessing       OrderStatus = "processing"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusRefunded         OrderStatus = "refunded"
	OrderStatusReturnInProgress OrderStatus = "return_in_progress"
)

var orderStatusText = map[OrderStatus]string{
	OrderStatusPendingPayment:   "Pendiente de pago",
	OrderStatusConfirmed:        "Confirmado",
	OrderStatusProcessing:       "En proceso",
	OrderStatusShipped:          "Enviado",
	OrderStatusDelivered:        "Entregado",
	OrderStatusCancelled:        "Cancelado",
	OrderStatusRefunded:         "Reembolsado",
	OrderStatusReturnInProgress: "Devolución en curso",
}

// Text is the label shown to customers. Unknown statuses are shown as is.
func (s OrderStatus) Text() string {
	if t, ok := orderStatusText[s]; ok {
		return t
	}
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusText[s]
	return ok
}

type OrderItem struct {
	ID       string
	Name     string
	Variant  string
	Quantity int
	Price    float64
	Image    string
}

type Order struct {
	ID                string
	Number            string
	Status            OrderStatus
	StatusDate        time.Time
	StatusDescription string
	CreatedAt         time.Time
	DeliveryDate      time.Time
	Currency          string
	Subtotal          float64
	Discount          float64
	Shipping          float64
	Taxes             float64
	Total             float64
	Items             []OrderItem
	ReturnTracking    string
	ReturnCarrier     string
}

// CanReturn reports whether the order is delivered and still within the
// return window. Days are counted whole, so the last day ends at its close.
func (o Order) CanReturn(now time.Time) bool {
	if o.Status != OrderStatusDelivered || o.DeliveryDate.IsZero() {
		return false
	}

	days := int(now.Sub(o.DeliveryDate) / (24 * time.Hour))
	return days <= int(ReturnWindow/(24*time.Hour))
}

// HasItems reports whether every id belongs to the order.
func (o Order) HasItems(ids []string) bool {
	known := make(map[string]struct{}, len(o.Items))
	for _, it := range o.Items {
		known[it.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return false
		}
	}
	return true
}

// OrderQuery filters the order history.
type OrderQuery struct {
	Status OrderStatus
	Search string
	Sort   string
	Page   int
	Limit  int
}

type OrderList struct {
	Orders []Order
	Page   int
	Limit  int
	Total  int
}

// BuyAgainResult is the cart the backend filled from a past order.
type BuyAgainResult struct {
	CartID     string
	CartURL    string
	ItemsAdded int
}

// Invoice is a download link for an order's PDF.
type Invoice struct {
	URL       string
	ExpiresAt time.Time
}
