package dto

// TokenAdjustRequest credits (positive) or debits (negative) a balance
type TokenAdjustRequest struct {
	Amount int64  `json:"amount" validate:"required,ne=0"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
