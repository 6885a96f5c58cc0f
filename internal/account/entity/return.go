package entity

import "slices"

// ReturnReasons are the reasons a customer can pick, in display order.
var ReturnReasons = []string{
	"Producto defectuoso",
	"No es lo que esperaba",
	"Pedido incorrecto",
	"Ya no lo necesito",
	"Otro",
}

func ValidReturnReason(r string) bool {
	return slices.Contains(ReturnReasons, r)
}

type ReturnRequest struct {
	OrderID string
	ItemIDs []string
	Reason  string
	Comment string
}

type ReturnResult struct {
	ID     string
	Status OrderStatus
}
