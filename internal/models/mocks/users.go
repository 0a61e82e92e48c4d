package mocks

import "github.com/mabego/firebase-login/internal/models"

// UserModel is an in-memory user store seeded with one user.
type UserModel struct {
	models.MemoryUserModel
}

// newMockUser creates an instance of the User struct with mock data.
func newMockUser(uid string) *models.User {
	return &models.User{
		ID:        uid,
		Name:      models.DefaultUserName,
		Addresses: []models.Address{{Address1: "An old silent pond", Address2: "Kyoto"}},
	}
}

// NewUserModel returns a UserModel holding the mock document for uid.
func NewUserModel(uid string) *UserModel {
	m := &UserModel{}
	m.Put(newMockUser(uid))
	return m
}
