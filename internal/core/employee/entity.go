package employee

import "time"

// Status は社員の状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Employee は社員エンティティです。
type Employee struct {
	ID         string
	Name       string
	Email      string
	Department string
	Position   string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
