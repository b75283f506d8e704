package project

import "time"

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusArchived Status = "ARCHIVED"
)

// Project is the top of the work breakdown: projects decompose into items,
// items into tasks.
type Project struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	Status      Status    `gorm:"column:status;type:varchar(20);default:'OPEN'" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Items       []Item    `gorm:"foreignKey:ProjectID" json:"items,omitempty"`
}

// Item is one deliverable within a project. Tasks reference items via their
// item_id link.
type Item struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	ProjectID string    `gorm:"column:project_id;index;not null" json:"projectId"`
	Name      string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Quantity  int       `gorm:"column:quantity;default:1" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
