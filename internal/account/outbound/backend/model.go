package backend

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/account/entity"
)

type orderItemModel struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Variant  string  `json:"variant"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
}

type orderModel struct {
	ID                string           `json:"id"`
	Number            string           `json:"number"`
	Status            string           `json:"status"`
	StatusDate        time.Time        `json:"statusDate"`
	StatusDescription string           `json:"statusDescription"`
	CreatedAt         time.Time        `json:"createdAt"`
	DeliveryDate      *time.Time       `json:"deliveryDate"`
	Currency          string           `json:"currency"`
	Subtotal          float64          `json:"subtotal"`
	Discount          float64          `json:"discount"`
	Shipping          float64          `json:"shipping"`
	Taxes             float64          `json:"taxes"`
	Total             float64          `json:"total"`
	Items             []orderItemModel `json:"items"`
	ReturnTracking    string           `json:"returnTracking"`
	ReturnCarrier     string           `json:"returnCarrier"`
}

func (m orderModel) toEntity() entity.Order {
	o := entity.Order{
		ID:                m.ID,
		Number:            m.Number,
		Status:            entity.OrderStatus(m.Status),
		StatusDate:        m.StatusDate,
		StatusDescription: m.StatusDescription,
		CreatedAt:         m.CreatedAt,
		Currency:          m.Currency,
		Subtotal:          m.Subtotal,
		Discount:          m.Discount,
		Shipping:          m.Shipping,
		Taxes:             m.Taxes,
		Total:             m.Total,
		ReturnTracking:    m.ReturnTracking,
		ReturnCarrier:     m.ReturnCarrier,
		Items: lo.Map(m.Items, func(it orderItemModel, _ int) entity.OrderItem {
			return entity.OrderItem(it)
		}),
	}
	if m.DeliveryDate != nil {
		o.DeliveryDate = *m.DeliveryDate
	}
	if o.Currency == "" {
		o.Currency = "MXN"
	}
	return o
}

type orderListModel struct {
	Orders []orderModel `json:"orders"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
	Total  int          `json:"total"`
}

type buyAgainModel struct {
	CartID     string `json:"cartId"`
	CartURL    string `json:"cartUrl"`
	ItemsAdded int    `json:"itemsAdded"`
}

type returnRequestModel struct {
	Items   []string `json:"items"`
	Reason  string   `json:"reason"`
	Comment string   `json:"comment,omitempty"`
}

type returnModel struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type profileModel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	MarketingOptIn bool   `json:"marketingOptIn"`
}

type profileUpdateModel struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	MarketingOptIn *bool   `json:"marketingOptIn,omitempty"`
}

type addressModel struct {
	ID           string `json:"id,omitempty"`
	Alias        string `json:"alias"`
	Recipient    string `json:"recipient"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"isDefault"`
}
