package discord

import (
	"fmt"

	"github.com/peerly/peerly/pkg/entities"
)

// NotificationEmoji maps notification types to the emoji shown in Discord
var NotificationEmoji = map[entities.NotificationType]string{
	entities.NotificationTypeBooking:      "📅",
	entities.NotificationTypeCancellation: "🚫",
	entities.NotificationTypeEarning:      "🪙",
	entities.NotificationTypeReminder:     "⏰",
	entities.NotificationTypeMessage:      "💬",
}

// FormatNotification renders n as a Discord message
func FormatNotification(n entities.Notification) string {
	emoji := NotificationEmoji[n.Type]
	if emoji == "" {
		emoji = "🔔"
	}
	if n.Message == "" {
		return fmt.Sprintf("%s **%s**", emoji, n.Title)
	}
	return fmt.Sprintf("%s **%s**\n%s", emoji, n.Title, n.Message)
}
