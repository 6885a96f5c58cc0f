package inbound

import (
	"context"

	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/account/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/router"
)

type uc interface {
	ListOrders(ctx context.Context, in usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error)
	GetOrder(ctx context.Context, in usecase.OrderInput) (*usecase.OrderView, error)
	BuyAgain(ctx context.Context, in usecase.BuyAgainInput) (*entity.BuyAgainResult, error)
	Invoice(ctx context.Context, in usecase.OrderInput) (*entity.Invoice, error)
	RequestReturn(ctx context.Context, in usecase.ReturnInput) (*entity.ReturnResult, error)

	GetProfile(ctx context.Context) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, in usecase.UpdateProfileInput) (*entity.Profile, error)

	ListAddresses(ctx context.Context) ([]entity.Address, error)
	CreateAddress(ctx context.Context, in usecase.AddressInput) (*entity.Address, error)
	UpdateAddress(ctx context.Context, in usecase.AddressInput) (*entity.Address, error)
	DeleteAddress(ctx context.Context, in usecase.AddressIDInput) error
}

// RegisterHTTPEndpoint mounts the account routes. All of them need a portal token.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Orders
	r.GET("/api/v1/account/orders", end.ListOrders)
	r.GET("/api/v1/account/orders/:id", end.GetOrder)
	r.POST("/api/v1/account/orders/:id/buy-again", end.BuyAgain)
	r.GET("/api/v1/account/orders/:id/invoice", end.Invoice)
	r.POST("/api/v1/account/orders/:id/return", end.RequestReturn)

	// Profile
	r.GET("/api/v1/account/profile", end.GetProfile)
	r.PATCH("/api/v1/account/profile", end.UpdateProfile)

	// Addresses
	r.GET("/api/v1/account/addresses", end.ListAddresses)
	r.POST("/api/v1/account/addresses", end.CreateAddress)
	r.PATCH("/api/v1/account/addresses/:id", end.UpdateAddress)
	r.DELETE("/api/v1/account/addresses/:id", end.DeleteAddress)
}
