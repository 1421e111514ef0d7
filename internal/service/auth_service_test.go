package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates customer account", func(t *testing.T) {
		f := newFixture(t)
		user, err := f.auth.Signup(ctx, "Amy@Example.com", "secret123", "customer")
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "amy@example.com", user.Email)
		assert.Equal(t, domain.RoleCustomer, user.Role)
		assert.NotEqual(t, "secret123", user.PasswordHash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		f := newFixture(t)
		f.newUser(t, "amy@example.com", domain.RoleCustomer)

		_, err := f.auth.Signup(ctx, "amy@example.com", "other", "CUSTOMER")
		domainErr := requireDomainError(t, err, http.StatusBadRequest, "CONFLICT")
		assert.Equal(t, "User with this email already exists", domainErr.Message)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auth.Signup(ctx, "bob@example.com", "secret123", "SUPERVISOR")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auth.Signup(ctx, "", "secret123", "CUSTOMER")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")

		_, err = f.auth.Signup(ctx, "bob@example.com", "", "CUSTOMER")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds with matching role", func(t *testing.T) {
		f := newFixture(t)
		f.newUser(t, "amy@example.com", domain.RoleCustomer)

		user, token, exp, err := f.auth.Login(ctx, "amy@example.com", "secret123", "CUSTOMER")
		require.NoError(t, err)
		assert.Equal(t, "amy@example.com", user.Email)
		assert.NotEmpty(t, token)
		assert.False(t, exp.IsZero())
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		f := newFixture(t)
		_, _, _, err := f.auth.Login(ctx, "ghost@example.com", "secret123", "CUSTOMER")
		domainErr := requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "User not found", domainErr.Message)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		f := newFixture(t)
		f.newUser(t, "amy@example.com", domain.RoleCustomer)

		_, _, _, err := f.auth.Login(ctx, "amy@example.com", "wrong", "CUSTOMER")
		domainErr := requireDomainError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Equal(t, "Invalid username or password", domainErr.Message)
	})

	t.Run("role mismatch is forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.newUser(t, "amy@example.com", domain.RoleCustomer)

		_, _, _, err := f.auth.Login(ctx, "amy@example.com", "secret123", "AGENT")
		domainErr := requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
		assert.Equal(t, "Access denied: User does not have the required role.", domainErr.Message)
	})
}
