package dbmysql

import (
	"time"
)

// Message is one chat message row. Rows are immutable after insert except
// for the Read and Deleted flags; the auto-increment ID doubles as the
// monotonic sort key for messages sharing a CreatedAt.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SenderID      string    `gorm:"index;size:36" json:"senderId"`
	ReceiverID    string    `gorm:"index;size:36" json:"receiverId"`
	ProductID     string    `gorm:"index;size:36" json:"productId"`
	Body          string    `gorm:"type:text" json:"text"`
	AttachmentURL string    `gorm:"size:512" json:"image,omitempty"`
	Read          bool      `gorm:"default:false" json:"read"`
	Deleted       bool      `gorm:"default:false;index" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}
