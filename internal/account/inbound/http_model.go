package inbound

import (
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/account/usecase"
)

type ReturnRequest struct {
	Items   []string `json:"items"`
	Reason  string   `json:"reason"`
	Comment string   `json:"comment"`
}

type ProfileRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	MarketingOptIn *bool   `json:"marketing_opt_in"`
}

type AddressRequest struct {
	Alias        string `json:"alias"`
	Recipient    string `json:"recipient"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

func (req AddressRequest) toInput(id string) usecase.AddressInput {
	return usecase.AddressInput{
		ID:           id,
		Alias:        req.Alias,
		Recipient:    req.Recipient,
		Street:       req.Street,
		Number:       req.Number,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
	}
}

type OrderItemResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Variant  string  `json:"variant,omitempty"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
}

type OrderResponse struct {
	ID                string              `json:"id"`
	Number            string              `json:"number"`
	Status            string              `json:"status"`
	StatusText        string              `json:"status_text"`
	StatusDate        time.Time           `json:"status_date"`
	StatusDescription string              `json:"status_description,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	DeliveryDate      *time.Time          `json:"delivery_date,omitempty"`
	Currency          string              `json:"currency"`
	Subtotal          float64             `json:"subtotal"`
	Discount          float64             `json:"discount"`
	Shipping          float64             `json:"shipping"`
	Taxes             float64             `json:"taxes"`
	Total             float64             `json:"total"`
	Items             []OrderItemResponse `json:"items"`
	CanReturn         bool                `json:"can_return"`
	ReturnTracking    string              `json:"return_tracking,omitempty"`
	ReturnCarrier     string              `json:"return_carrier,omitempty"`
}

func toOrder(v usecase.OrderView) OrderResponse {
	resp := OrderResponse{
		ID:                v.ID,
		Number:            v.Number,
		Status:            string(v.Status),
		StatusText:        v.StatusText,
		StatusDate:        v.StatusDate,
		StatusDescription: v.StatusDescription,
		CreatedAt:         v.CreatedAt,
		Currency:          v.Currency,
		Subtotal:          v.Subtotal,
		Discount:          v.Discount,
		Shipping:          v.Shipping,
		Taxes:             v.Taxes,
		Total:             v.Total,
		CanReturn:         v.CanReturn,
		ReturnTracking:    v.ReturnTracking,
		ReturnCarrier:     v.ReturnCarrier,
		Items: lo.Map(v.Items, func(it entity.OrderItem, _ int) OrderItemResponse {
			return OrderItemResponse(it)
		}),
	}
	if !v.DeliveryDate.IsZero() {
		d := v.DeliveryDate
		resp.DeliveryDate = &d
	}
	return resp
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`

	page, limit, total int
}

func (r OrderListResponse) Meta() map[string]any {
	return map[string]any{"page": r.page, "limit": r.limit, "total": r.total}
}

type BuyAgainResponse struct {
	CartID     string `json:"cart_id"`
	CartURL    string `json:"cart_url,omitempty"`
	ItemsAdded int    `json:"items_added"`
}

func (BuyAgainResponse) Message() string { return "Productos agregados al carrito" }

type InvoiceResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ReturnResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (ReturnResponse) Message() string { return "Solicitud de devolución enviada" }

func (ReturnResponse) StatusCode() int { return http.StatusCreated }

type ProfileResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	MarketingOptIn bool   `json:"marketing_opt_in"`
}

type AddressResponse struct {
	ID           string `json:"id"`
	Alias        string `json:"alias"`
	Recipient    string `json:"recipient"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

type CreatedAddressResponse struct {
	AddressResponse
}

func (CreatedAddressResponse) Message() string { return "Dirección guardada" }

func (CreatedAddressResponse) StatusCode() int { return http.StatusCreated }
