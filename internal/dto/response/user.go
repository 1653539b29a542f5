package response

import (
	"user-management/internal/data/entity"
)

// UserResponse is the public projection of a user. It never carries the
// password hash, the delete flag, timestamps or the date of birth.
type UserResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	IsEnabled   bool    `json:"isEnabled"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsEnabled:   user.IsEnabled,
	}
}

func UsersToResponse(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserToResponse(u))
	}
	return out
}
