package event

import (
	"github.com/google/uuid"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
)

type PoolReceived struct {
	entity.PoolSnapshot

	Offset int64
}

type ContributionRequested struct {
	ID        uuid.UUID
	PoolID    string
	GranteeID string
	Change    entity.ContributionChange
}

type ImpactEstimated struct {
	RequestID uuid.UUID
	PoolID    string
	GranteeID string
	Block     uint64
	Impact    flowmath.Impact
}

type ImpactFailed struct {
	RequestID uuid.UUID
	Err       string
}
