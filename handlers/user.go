package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/kova98/gigscout.api/data"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, user data.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// currentUser panics when the request did not pass through authentication.
func currentUser(r *http.Request) data.User {
	return r.Context().Value(userContextKey).(data.User)
}

type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*data.User, error)
	InsertUser(ctx context.Context, user data.User) (uuid.UUID, error)
}

type UserHandler struct {
	users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) InitializeUser(w http.ResponseWriter, r *http.Request) Result {
	user := currentUser(r)

	exists, err := h.users.GetUserByID(r.Context(), user.ID)
	if err != nil {
		return InternalError(err, "initialize user: get user")
	}
	if exists != nil {
		return Ok(map[string]interface{}{"id": user.ID})
	}

	id, err := h.users.InsertUser(r.Context(), user)
	if err != nil {
		return InternalError(err, "initialize user: insert user")
	}

	return Created(id)
}
