package machine

import "time"

type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusMaintenance Status = "MAINTENANCE"
	StatusRetired     Status = "RETIRED"
)

func (s Status) String() string {
	switch s {
	case StatusActive, StatusMaintenance, StatusRetired:
		return string(s)
	default:
		return ""
	}
}

// Machine is a schedulable resource. Tasks reference it via their machine_id
// link; the scheduling service guards it against double-booking.
type Machine struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name"`
	Status    Status    `gorm:"column:status;type:varchar(20);default:'ACTIVE'" json:"status"`
	Location  string    `gorm:"column:location;type:varchar(100)" json:"location,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
