package flowmath

import "errors"

var (
	ErrInvalidWindow    = errors.New("auction end must be after start")
	ErrInvalidBidRange  = errors.New("ending bid must not exceed starting bid")
	ErrNegativeBid      = errors.New("bid must not be negative")
	ErrInvalidLength    = errors.New("auction length must be positive")
	ErrNegativeFlowRate = errors.New("flow rate must not be negative")
	ErrNegativeUnits    = errors.New("units must not be negative")
	ErrZeroPoolUnits    = errors.New("pool total units would be zero")
	ErrUnknownMember    = errors.New("member not found in pool")
)
