package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/account/usecase"
	"github.com/shandysiswandi/portal/internal/pkg/router"
)

// HTTPEndpoint exposes order history, profile and address book handlers.
type HTTPEndpoint struct {
	uc uc
}

// ListOrders pages through the order history. Page and limit travel in meta.
// @Summary List orders
// @Description Returns the customer's orders with optional status filter, search and sort.
// @Tags Account, Orders
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status: pending_payment, confirmed, processing, shipped, delivered, cancelled, refunded, return_in_progress"
// @Param search query string false "Free text search, passed to the backend"
// @Param sort query string false "Sort: date-desc, date-asc, number-desc, number-asc, total-desc, total-asc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size, up to 50"
// @Success 200 {object} router.successResponse{data=OrderListResponse} "Order list"
// @Failure 400 {object} router.errorResponse "Invalid query parameter"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/orders [get]
func (h *HTTPEndpoint) ListOrders(r *router.Request) (any, error) {
	page, err := r.GetQueryInt("page")
	if err != nil {
		return nil, err
	}
	limit, err := r.GetQueryInt("limit")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListOrders(r.Context(), usecase.ListOrdersInput{
		Status: r.GetQuery("status"),
		Search: r.GetQuery("search"),
		Sort:   r.GetQuery("sort"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	return OrderListResponse{
		Orders: lo.Map(out.Orders, func(v usecase.OrderView, _ int) OrderResponse { return toOrder(v) }),
		page:   out.Page,
		limit:  out.Limit,
		total:  out.Total,
	}, nil
}

// @Summary Get order detail
// @Description Returns one order with its items, status text and return eligibility.
// @Tags Account, Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} router.successResponse{data=OrderResponse} "Order detail"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Order not found"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/orders/{id} [get]
func (h *HTTPEndpoint) GetOrder(r *router.Request) (any, error) {
	out, err := h.uc.GetOrder(r.Context(), usecase.OrderInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toOrder(*out), nil
}

// BuyAgain passes the Idempotency-Key header through when the client sends one.
// @Summary Buy again
// @Description Adds the order's items to a new cart. Repeating a request with the same Idempotency-Key replays the first result.
// @Tags Account, Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Param Idempotency-Key header string false "Client generated key"
// @Success 200 {object} router.successResponse{data=BuyAgainResponse} "Cart"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Order not found"
// @Failure 409 {object} router.errorResponse "Key reused or request in progress"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/orders/{id}/buy-again [post]
func (h *HTTPEndpoint) BuyAgain(r *router.Request) (any, error) {
	out, err := h.uc.BuyAgain(r.Context(), usecase.BuyAgainInput{
		ID:             r.GetParam("id"),
		IdempotencyKey: r.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		return nil, err
	}

	return BuyAgainResponse{CartID: out.CartID, CartURL: out.CartURL, ItemsAdded: out.ItemsAdded}, nil
}

// @Summary Get invoice link
// @Description Returns a short-lived download link for the order invoice PDF.
// @Tags Account, Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} router.successResponse{data=InvoiceResponse} "Invoice link"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Invoice not found"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/orders/{id}/invoice [get]
func (h *HTTPEndpoint) Invoice(r *router.Request) (any, error) {
	out, err := h.uc.Invoice(r.Context(), usecase.OrderInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return InvoiceResponse{URL: out.URL, ExpiresAt: out.ExpiresAt}, nil
}

// @Summary Request a return
// @Description Opens a return for delivered items within the return window.
// @Tags Account, Returns
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body ReturnRequest true "Return payload"
// @Success 201 {object} router.successResponse{data=ReturnResponse} "Return requested"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Order not found"
// @Failure 422 {object} router.errorResponse "Order not eligible or validation error"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/orders/{id}/return [post]
func (h *HTTPEndpoint) RequestReturn(r *router.Request) (any, error) {
	var req ReturnRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.RequestReturn(r.Context(), usecase.ReturnInput{
		OrderID: r.GetParam("id"),
		ItemIDs: req.Items,
		Reason:  req.Reason,
		Comment: req.Comment,
	})
	if err != nil {
		return nil, err
	}

	return ReturnResponse{ID: out.ID, Status: string(out.Status)}, nil
}

// @Summary Get profile
// @Tags Account, Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/profile [get]
func (h *HTTPEndpoint) GetProfile(r *router.Request) (any, error) {
	out, err := h.uc.GetProfile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse(*out), nil
}

// @Summary Update profile
// @Description Changes only the fields present in the payload.
// @Tags Account, Profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ProfileRequest true "Profile payload"
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/profile [patch]
func (h *HTTPEndpoint) UpdateProfile(r *router.Request) (any, error) {
	var req ProfileRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.UpdateProfile(r.Context(), usecase.UpdateProfileInput(req))
	if err != nil {
		return nil, err
	}

	return ProfileResponse(*out), nil
}

// @Summary List addresses
// @Tags Account, Addresses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=[]AddressResponse} "Address book"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/addresses [get]
func (h *HTTPEndpoint) ListAddresses(r *router.Request) (any, error) {
	out, err := h.uc.ListAddresses(r.Context())
	if err != nil {
		return nil, err
	}

	return lo.Map(out, func(a entity.Address, _ int) AddressResponse { return AddressResponse(a) }), nil
}

// @Summary Create address
// @Tags Account, Addresses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AddressRequest true "Address payload"
// @Success 201 {object} router.successResponse{data=AddressResponse} "Address saved"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/addresses [post]
func (h *HTTPEndpoint) CreateAddress(r *router.Request) (any, error) {
	var req AddressRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.CreateAddress(r.Context(), req.toInput(""))
	if err != nil {
		return nil, err
	}

	return CreatedAddressResponse{AddressResponse(*out)}, nil
}

// @Summary Update address
// @Tags Account, Addresses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Address ID"
// @Param request body AddressRequest true "Address payload"
// @Success 200 {object} router.successResponse{data=AddressResponse} "Address"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Address not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/addresses/{id} [patch]
func (h *HTTPEndpoint) UpdateAddress(r *router.Request) (any, error) {
	var req AddressRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.UpdateAddress(r.Context(), req.toInput(r.GetParam("id")))
	if err != nil {
		return nil, err
	}

	return AddressResponse(*out), nil
}

// @Summary Delete address
// @Tags Account, Addresses
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Address not found"
// @Failure 502 {object} router.errorResponse "Backend unreachable"
// @Router /api/v1/account/addresses/{id} [delete]
func (h *HTTPEndpoint) DeleteAddress(r *router.Request) (any, error) {
	if err := h.uc.DeleteAddress(r.Context(), usecase.AddressIDInput{ID: r.GetParam("id")}); err != nil {
		return nil, err
	}

	return nil, nil
}
