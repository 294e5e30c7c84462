package web

import (
	"net/http"
	"time"

	"github.com/voxway/voxgate/app"
	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/domain/apierr"
)

// UserDTO is the user shape returned by the API.
type UserDTO struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name,omitempty"`
	Status          string     `json:"status"`
	IsAdmin         bool       `json:"isAdmin"`
	IsDeveloper     bool       `json:"isDeveloper"`
	STTMinutesUsed  int        `json:"sttMinutesUsed"`
	STTMinutesLimit int        `json:"sttMinutesLimit"`
	AICreditsUsed   float64    `json:"aiCreditsUsed"`
	AICreditsLimit  float64    `json:"aiCreditsLimit"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

func toUserDTO(u account.User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Status:          u.Status,
		IsAdmin:         u.IsAdmin,
		IsDeveloper:     u.IsDeveloper,
		STTMinutesUsed:  u.STTMinutesUsed,
		STTMinutesLimit: u.STTMinutesLimit,
		AICreditsUsed:   u.AICreditsUsed,
		AICreditsLimit:  u.AICreditsLimit,
		CreatedAt:       u.CreatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
}

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
}

// RegisterResponse is the registration response.
type RegisterResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

// Register creates a pending account.
//
//	@Summary	Register a new account
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		RegisterRequest	true	"Registration details"
//	@Success	200		{object}	RegisterResponse
//	@Failure	409		{object}	errorEnvelope	"Email already registered"
//	@Router		/api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name, requestMeta(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterResponse{
		Message: "Registration successful. Please wait for admin approval.",
		User:    toUserDTO(user),
	})
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the login response.
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// Login authenticates a user and returns a bearer token.
//
//	@Summary	Log in
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		LoginRequest	true	"Credentials"
//	@Success	200		{object}	LoginResponse
//	@Failure	401		{object}	errorEnvelope	"Invalid credentials"
//	@Router		/api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(w, h.logger, apierr.Validation("Email and password are required"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: result.Token,
		User:  toUserDTO(result.User),
	})
}

// UsageResponse is the caller's quota snapshot.
type UsageResponse struct {
	STTMinutesUsed  int     `json:"sttMinutesUsed"`
	STTMinutesLimit int     `json:"sttMinutesLimit"`
	AICreditsUsed   float64 `json:"aiCreditsUsed"`
	AICreditsLimit  float64 `json:"aiCreditsLimit"`
}

// Usage returns the caller's quota counters.
//
//	@Summary	Get own usage
//	@Tags		User
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	UsageResponse
//	@Router		/api/user/usage [get]
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	user, _ := getUser(r.Context())
	writeJSON(w, http.StatusOK, UsageResponse{
		STTMinutesUsed:  user.STTMinutesUsed,
		STTMinutesLimit: user.STTMinutesLimit,
		AICreditsUsed:   user.AICreditsUsed,
		AICreditsLimit:  user.AICreditsLimit,
	})
}

func requestMeta(r *http.Request) app.RequestMeta {
	return app.RequestMeta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}
