package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/rodalabs/roda-auth/internal/observability"
	"github.com/rodalabs/roda-auth/internal/platform/httpx"
	"github.com/rodalabs/roda-auth/internal/shared"
	"github.com/rodalabs/roda-auth/internal/users"
)

// LoginThrottle guards the login endpoint against credential stuffing.
type LoginThrottle interface {
	CheckLogin(ctx context.Context, cedula, ip string) error
	RecordFailure(ctx context.Context, cedula, ip string)
	Reset(ctx context.Context, cedula, ip string)
}

// Handler wires HTTP endpoints for the token lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	accounts  *users.Service
	throttle  LoginThrottle
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. The throttle and metrics are
// optional.
func NewHandler(logger *slog.Logger, service *Service, accounts *users.Service, throttle LoginThrottle, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		accounts:  accounts,
		throttle:  throttle,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	loginLimit := httprate.Limit(20, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	r.With(loginLimit).Post("/login", h.handleLogin)
	r.With(loginLimit).Post("/register", h.handleRegister)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
	r.Get("/verify", h.handleVerify)
	r.Get("/me", h.handleMe)
}

type registerRequest struct {
	Cedula          string `json:"cedula" validate:"required,min=6,max=20"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Phone           string `json:"phone" validate:"required,max=20"`
	Address         string `json:"address" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	user, err := h.accounts.Register(r.Context(), users.RegisterInput{
		Cedula:    req.Cedula,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.service.AuditRegister(r.Context(), user, requestMeta(r))
	httpx.JSON(w, http.StatusCreated, map[string]string{
		"user_id": user.ID.String(),
	})
}

type loginRequest struct {
	Cedula   string `json:"cedula" validate:"required,min=6,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		// Shape failures get the same response as bad credentials so the
		// endpoint leaks nothing about which cedulas exist.
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	meta := requestMeta(r)
	if h.throttle != nil {
		if err := h.throttle.CheckLogin(r.Context(), req.Cedula, meta.IPAddress); err != nil {
			if errors.Is(err, shared.ErrRateLimited) {
				h.metrics.ObserveLogin("throttled")
			}
			httpx.RespondError(w, err)
			return
		}
	}
	pair, err := h.service.Login(r.Context(), req.Cedula, req.Password, meta)
	if err != nil {
		if isCredentialFailure(err) {
			h.metrics.ObserveLogin("failure")
			if h.throttle != nil {
				h.throttle.RecordFailure(r.Context(), req.Cedula, meta.IPAddress)
			}
		}
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveLogin("success")
	if h.throttle != nil {
		h.throttle.Reset(r.Context(), req.Cedula, meta.IPAddress)
	}
	httpx.JSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}
	pair, err := h.service.Refresh(r.Context(), req.RefreshToken, requestMeta(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	accessToken := httpx.BearerToken(r)
	if accessToken == "" {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}
	var req logoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
			return
		}
	}
	if err := h.service.Logout(r.Context(), accessToken, req.RefreshToken, requestMeta(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type verifyResponse struct {
	Subject   string    `json:"subject"`
	Cedula    string    `json:"cedula"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	accessToken := httpx.BearerToken(r)
	if accessToken == "" {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}
	result, _, err := h.service.Verify(r.Context(), accessToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, verifyResponse{
		Subject:   result.Subject.String(),
		Cedula:    result.Cedula,
		Role:      result.Role,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	accessToken := httpx.BearerToken(r)
	if accessToken == "" {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}
	_, user, err := h.service.Verify(r.Context(), accessToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Profile())
}

func requestMeta(r *http.Request) RequestMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return RequestMeta{IPAddress: ip, UserAgent: r.UserAgent()}
}

func isCredentialFailure(err error) bool {
	return errors.Is(err, shared.ErrInvalidCredentials)
}

func validationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Field() + " failed " + errs[0].Tag() + " validation"
	}
	return "invalid request"
}
