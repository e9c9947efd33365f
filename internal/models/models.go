package models

import (
	"time"
)

// Customer represents one consent record per normalized phone number.
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Phone       string    `gorm:"uniqueIndex;not null" json:"phone"`
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	DNC         bool      `gorm:"column:dnc;default:false" json:"dnc"`
	OptinDate   string    `gorm:"type:varchar(32)" json:"optin_date"`
	OptinSource string    `gorm:"type:varchar(64)" json:"optin_source"`
	OptoutDate  string    `gorm:"type:varchar(32)" json:"optout_date"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Message type values.
const (
	TypeInbound      = "inbound"
	TypeOutbound     = "outbound"
	TypeStatusUpdate = "status-update"
)

// Message represents one row of the message log. SID is the
// provider-assigned identifier; inbound-only rows may repeat it, status
// callbacks update the first row that carries it.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SID       string    `gorm:"column:sid;index" json:"sid"`
	Date      string    `gorm:"type:varchar(32)" json:"date"`
	Phone     string    `gorm:"index" json:"phone"`
	Type      string    `gorm:"type:varchar(20)" json:"type"`
	Body      string    `gorm:"column:message;type:text" json:"message"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	Error     string    `gorm:"type:varchar(255)" json:"error"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}
