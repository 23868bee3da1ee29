package model

import "time"

// Profile 结构体表示用户在某个社区内扮演的虚拟身份
type Profile struct {
	ID                   string    `json:"id"`
	Handle               string    `json:"handle"`
	GuildID              string    `json:"guild_id"`
	UserID               string    `json:"user_id"`
	DisplayName          string    `json:"display_name"`
	ProfilePicture       string    `json:"profile_picture"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}
