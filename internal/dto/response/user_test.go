package response

import (
	"encoding/json"
	"testing"

	"user-management/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserToResponse_HidesSecrets(t *testing.T) {
	phone := "+8801711223344"
	user := &entity.User{
		Base:         entity.Base{ID: uuid.New()},
		Username:     "jdoe",
		Email:        "john@example.com",
		PhoneNumber:  &phone,
		FirstName:    "John",
		LastName:     "Doe",
		PasswordHash: "$2a$12$secret",
		IsEnabled:    true,
		IsDeleted:    true,
	}

	raw, err := json.Marshal(UserToResponse(user))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.ElementsMatch(t,
		[]string{"id", "username", "email", "phoneNumber", "firstName", "lastName", "isEnabled"},
		keys(fields))
	assert.NotContains(t, string(raw), "secret")
	assert.Equal(t, user.ID.String(), fields["id"])
}

func TestNewPaginatedResponse(t *testing.T) {
	page := NewPaginatedResponse([]UserResponse{{Username: "a"}}, 2, 10, 21)

	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, int64(21), page.Pagination.Total)
	assert.Len(t, page.Data, 1)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
