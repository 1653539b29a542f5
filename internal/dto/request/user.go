package request

// ForbiddenUpdateFields may never appear in an update body. Identity and
// lifecycle fields change only through their dedicated operations.
var ForbiddenUpdateFields = []string{"email", "password", "isDeleted", "id", "isEnabled", "createdAt"}

type RegisterRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,max=72"`
	FirstName   string  `json:"firstName" validate:"required"`
	LastName    string  `json:"lastName" validate:"required"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	DOB         *string `json:"dob,omitempty"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
}

// UpdateRequest is a sparse patch: nil fields are left untouched. An empty
// phoneNumber, dob or displayName clears the stored value.
type UpdateRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	DOB         *string `json:"dob,omitempty"`
}

// ForbiddenKeys returns the forbidden fields present in a decoded JSON object.
func ForbiddenKeys(body map[string]any) []string {
	var found []string
	for _, key := range ForbiddenUpdateFields {
		if _, ok := body[key]; ok {
			found = append(found, key)
		}
	}
	return found
}
