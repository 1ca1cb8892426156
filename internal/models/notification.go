package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotificationBudgetAlert       = "budget_alert"
	NotificationSavingsReminder   = "savings_reminder"
	NotificationTransactionUpdate = "transaction_update"
	NotificationSystem            = "system"
	NotificationAchievement       = "achievement"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification is a message shown to a single user.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Type      string             `bson:"type" json:"type"`
	Priority  string             `bson:"priority" json:"priority"`
	IsRead    bool               `bson:"is_read" json:"isRead"`
	ActionURL string             `bson:"action_url,omitempty" json:"actionUrl,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
