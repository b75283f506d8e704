package operator

import "time"

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusOnLeave   Status = "ON_LEAVE"
	StatusInactive  Status = "INACTIVE"
)

type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

// Operator is a schedulable human resource, checked for double-booking the
// same way machines are.
type Operator struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Status    Status    `gorm:"column:status;type:varchar(20);default:'AVAILABLE'" json:"status"`
	Shift     Shift     `gorm:"column:shift;type:varchar(10);default:'DAY'" json:"shift"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
