package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/google/uuid"

	"github.com/kova98/gigscout.api/config"
	"github.com/kova98/gigscout.api/data"
)

const tokenRefreshInterval = 4*time.Minute + 30*time.Second

type AuthHandler struct {
	keycloak *gocloak.GoCloak
	clientId string
	token    string
	secret   string
	realm    string
}

func NewAuthHandler(keycloak *gocloak.GoCloak) *AuthHandler {
	return &AuthHandler{
		keycloak: keycloak,
		secret:   config.Config.KeycloakClientSecret,
		realm:    config.Config.KeycloakRealm,
		clientId: config.Config.KeycloakClientID,
	}
}

// StartTokenTicker keeps the service account token fresh until ctx is done.
func (h *AuthHandler) StartTokenTicker(ctx context.Context) {
	if err := h.refreshApiToken(ctx); err != nil {
		slog.Error("failed to refresh api token on startup", "error", err)
		return
	}

	ticker := time.NewTicker(tokenRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.refreshApiToken(ctx); err != nil {
				slog.Error("failed to refresh api token", "error", err)
			}
		}
	}
}

func (h *AuthHandler) refreshApiToken(ctx context.Context) error {
	res, err := h.keycloak.LoginClient(ctx, h.clientId, h.secret, h.realm)
	if err != nil {
		return err
	}
	if res.AccessToken == "" {
		return errors.New("refresh api token: access token is empty")
	}
	h.token = res.AccessToken

	return nil
}

func (h *AuthHandler) GetUser(ctx context.Context, authHeader string) Result {
	if authHeader == "" {
		return Unauthorized("Missing authorization header")
	}

	res := h.getUserFromAuthHeader(ctx, authHeader)
	if res.Code != http.StatusOK {
		return res
	}
	userInfo := res.Body.(gocloak.UserInfo)

	email := gocloak.PString(userInfo.Email)
	name := gocloak.PString(userInfo.PreferredUsername)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	id, err := uuid.Parse(gocloak.PString(userInfo.Sub))
	if err != nil {
		slog.Error("failed to parse user id from keycloak", "sub", gocloak.PString(userInfo.Sub), "error", err)
		return InternalError(err, "Failed to parse user ID from Keycloak")
	}

	return Ok(data.User{
		ID:          id,
		Name:        name,
		DisplayName: gocloak.PString(userInfo.Name),
		Email:       email,
		Avatar:      gocloak.PString(userInfo.Picture),
	})
}

func (h *AuthHandler) getUserFromAuthHeader(ctx context.Context, authHeader string) Result {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Unauthorized("Invalid authorization header format")
	}
	authHeader = strings.TrimPrefix(authHeader, "Bearer ")

	if _, _, err := h.keycloak.DecodeAccessToken(ctx, authHeader, h.realm); err != nil {
		return Unauthorized("Invalid token")
	}

	userInfo, err := h.keycloak.GetUserInfo(ctx, authHeader, h.realm)
	if err != nil {
		return InternalError(err, "Failed to get user info")
	}
	if userInfo == nil {
		return Unauthorized("User not found")
	}

	return Ok(*userInfo)
}
