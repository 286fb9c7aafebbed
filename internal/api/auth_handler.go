package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// AuthHandler handles user registration and login.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	authConfig       *config.AuthConfig
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// The auth config supplies the token lifetime reported to clients.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordHasher auth.PasswordHasher,
	passwordVerifier auth.PasswordVerifier,
	authConfig *config.AuthConfig,
	log *slog.Logger,
) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordHasher:   passwordHasher,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		logger:           log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	// The password policy produces per-rule messages, so check it before
	// constructing the user.
	if err := domain.ValidatePassword(req.Password); err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	user, err := domain.NewUser(req.Username, req.Email, req.Password)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	hashedPassword, err := h.passwordHasher.Hash(req.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, "Failed to register user")
		return
	}
	user.HashedPassword = hashedPassword
	user.Password = ""

	if err := h.userStore.Create(ctx, user); err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))

	shared.RespondWithJSON(w, r, http.StatusOK, RegisterResponse{
		Message: "User registered successfully",
	})
}

// Login handles user authentication requests. The identifier is looked up as
// an email when it contains an '@', otherwise as a username. Unknown
// identifiers and wrong passwords are indistinguishable to the client.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := h.lookupUser(r, req.UsernameOrEmail)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error("failed to look up user", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(ctx, user.ID, user.Username)
	if err != nil {
		log.Error("failed to generate token",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}

	expiresAt := time.Now().
		UTC().
		Add(time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute)

	log.Info("user logged in", slog.String("user_id", user.ID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (h *AuthHandler) lookupUser(r *http.Request, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		return h.userStore.GetByEmail(r.Context(), identifier)
	}
	return h.userStore.GetByUsername(r.Context(), identifier)
}
