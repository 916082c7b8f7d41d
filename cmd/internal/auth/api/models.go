package authapi

import (
	"time"

	"sociofeed/cmd/identity"
)

type userResponse struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	AvatarURL          string `json:"avatar_url,omitempty"`
	TotalFollowers     int64  `json:"total_followers"`
	TotalFollowing     int64  `json:"total_following"`
	TotalNotifications int64  `json:"total_notifications"`
}

type refreshResponse struct {
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             userResponse `json:"user"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		AvatarURL:          u.AvatarURL,
		TotalFollowers:     u.TotalFollowers,
		TotalFollowing:     u.TotalFollowing,
		TotalNotifications: u.TotalNotifications,
	}
}
