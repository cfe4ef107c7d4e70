package user

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// Repository is the user store. Lookups by email expect a cleaned (trimmed, lower-cased) address.
type Repository interface {
	QueryAllUsers(ctx context.Context) ([]User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// CreateUser assigns the User's ID. It fails with ErrEmailExists on a duplicate email.
	CreateUser(ctx context.Context, usr User) (User, error)
	// UpdateUser replaces the stored User with the same ID.
	// It fails with ErrNotFound for an unknown ID and ErrEmailExists when the email belongs to another User.
	UpdateUser(ctx context.Context, usr User) (User, error)
}
