package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for persisted entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// Touch bumps the update timestamp and version
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
	e.Version++
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}
