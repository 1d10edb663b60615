package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
)

// Profile is the public view of a user.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// ToProfile maps the persistence model to the public view.
func ToProfile(user *models.User) Profile {
	if user == nil {
		return Profile{}
	}
	return Profile{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		JoinedAt: user.CreatedAt,
	}
}
