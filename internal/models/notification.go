package models

import "time"

type NotificationType string

const (
	NotificationBooking  NotificationType = "booking"
	NotificationReminder NotificationType = "reminder"
	NotificationUpdate   NotificationType = "update"
)

type NotificationData struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
