package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/geocoder89/socialhub/internal/accounts"
	"github.com/geocoder89/socialhub/internal/config"
	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/http/middlewares"
	"github.com/geocoder89/socialhub/internal/media"
	"github.com/gin-gonic/gin"
)

const avatarContainer = "avatars"

type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (account.Account, error)
	Authenticate(ctx context.Context, email, password string) (account.Account, error)
	Get(ctx context.Context, id account.Identity) (account.Account, error)
	Update(ctx context.Context, id account.Identity, ch accounts.Changes, newAvatarURL *string) (account.Account, error)
	ChangePassword(ctx context.Context, id account.Identity, current, next string) error
}

// AvatarStore persists processed avatar images and returns their public URL.
type AvatarStore interface {
	Save(ctx context.Context, container string, body io.Reader, contentType string, previousURL *string) (string, error)
	Delete(ctx context.Context, container, url string) error
}

type AccountHandler struct {
	svc       AccountService
	transport middlewares.Transport
	avatars   AvatarStore
	avatarPx  int
	obs       middlewares.CredentialObserver
}

// NewAccountHandler wires the account endpoints. avatars may be nil, in which
// case avatar uploads are refused. obs may be nil.
func NewAccountHandler(svc AccountService, transport middlewares.Transport, avatars AvatarStore, avatarPx int, obs middlewares.CredentialObserver) *AccountHandler {
	if avatarPx <= 0 {
		avatarPx = 512
	}
	return &AccountHandler{svc: svc, transport: transport, avatars: avatars, avatarPx: avatarPx, obs: obs}
}

func (h *AccountHandler) observe(event string) {
	if h.obs != nil {
		h.obs.ObserveCredential(h.transport.Name(), event)
	}
}

type RegisterRequest struct {
	FullName  string  `json:"fullName" binding:"required,max=200"`
	Email     string  `json:"email" binding:"required,email,max=320"`
	Password  string  `json:"password" binding:"required,max=1024"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,max=1024"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required,max=1024"`
	NewPassword     string `json:"newPassword" binding:"required,max=1024"`
}

type LoginResponse struct {
	Account account.Detail `json:"account"`
	middlewares.Grant
}

func (h *AccountHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	a, err := h.svc.Register(cctx, accounts.RegisterInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondAccountError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, a.Detail())
}

func (h *AccountHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	a, err := h.svc.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		respondAccountError(ctx, err)
		return
	}

	grant, err := h.transport.Issue(ctx, account.IdentityOf(a))
	if err != nil {
		slog.Default().ErrorContext(cctx, "issue credential failed",
			"transport", h.transport.Name(), "user_id", a.ID, "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not start session")
		return
	}
	h.observe("issued")

	ctx.JSON(http.StatusOK, LoginResponse{Account: a.Detail(), Grant: grant})
}

func (h *AccountHandler) WhoAmI(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.svc.Get(cctx, id)
	if err != nil {
		respondAccountError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, a.Detail())
}

// Update takes multipart form fields fullName and email plus an optional
// avatar file. Absent fields are left unchanged.
func (h *AccountHandler) Update(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	if ctx.ContentType() != "multipart/form-data" {
		RespondError(ctx, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be multipart/form-data", nil)
		return
	}

	var ch accounts.Changes
	if v, ok := ctx.GetPostForm("fullName"); ok {
		ch.FullName = &v
	}
	if v, ok := ctx.GetPostForm("email"); ok {
		ch.Email = &v
	}

	file, err := ctx.FormFile("avatar")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload is too large", gin.H{"limit": tooLarge.Limit})
		return
	}
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		RespondBadRequest(ctx, "Invalid multipart body", gin.H{"reason": err.Error()})
		return
	}

	var img io.Reader
	if file != nil {
		if h.avatars == nil {
			RespondError(ctx, http.StatusServiceUnavailable, "avatar_unavailable", "Avatar uploads are not configured", nil)
			return
		}
		if img, ok = h.decodeAvatar(ctx, id, file); !ok {
			return
		}
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 15*time.Second)
	defer cancel()

	// Field changes are validated and stored before any blob write.
	a, err := h.svc.Update(cctx, id, ch, nil)
	if err != nil {
		respondAccountError(ctx, err)
		return
	}

	if img != nil {
		if a, ok = h.storeAvatar(cctx, ctx, a, img); !ok {
			return
		}
	}

	ctx.JSON(http.StatusOK, a.Detail())
}

func (h *AccountHandler) decodeAvatar(ctx *gin.Context, id account.Identity, file *multipart.FileHeader) (io.Reader, bool) {
	f, err := file.Open()
	if err != nil {
		RespondBadRequest(ctx, "Could not read avatar", nil)
		return nil, false
	}
	defer f.Close()

	img, err := media.Avatar(f, h.avatarPx, h.avatarPx)
	if err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			RespondError(ctx, http.StatusBadRequest, "invalid_image", "Avatar is not a supported image", nil)
			return nil, false
		}
		slog.Default().ErrorContext(ctx.Request.Context(), "avatar transform failed", "user_id", id.UserID, "err", err)
		RespondInternal(ctx, "Could not process avatar")
		return nil, false
	}

	return img, true
}

// storeAvatar writes img over the account's current avatar object, if any,
// and records the URL. A fresh object is removed again when the record
// cannot be saved. It writes the error response itself on failure.
func (h *AccountHandler) storeAvatar(cctx context.Context, ctx *gin.Context, a account.Account, img io.Reader) (account.Account, bool) {
	url, err := h.avatars.Save(cctx, avatarContainer, img, media.ContentType, a.AvatarURL)
	if err != nil {
		slog.Default().ErrorContext(cctx, "avatar upload failed", "user_id", a.ID, "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not store avatar")
		return account.Account{}, false
	}

	updated, err := h.svc.Update(cctx, account.IdentityOf(a), accounts.Changes{}, &url)
	if err != nil {
		if a.AvatarURL == nil || *a.AvatarURL != url {
			if derr := h.avatars.Delete(cctx, avatarContainer, url); derr != nil {
				slog.Default().WarnContext(cctx, "orphaned avatar left behind", "url", url, "err", derr)
			}
		}
		respondAccountError(ctx, err)
		return account.Account{}, false
	}

	return updated, true
}

func (h *AccountHandler) ChangePassword(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.ChangePassword(cctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		respondAccountError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Logout ends the current session. It succeeds whether or not one exists.
func (h *AccountHandler) Logout(ctx *gin.Context) {
	if err := h.transport.Revoke(ctx); err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "revoke credential failed",
			"transport", h.transport.Name(), "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not end session")
		return
	}
	h.observe("revoked")

	ctx.Status(http.StatusNoContent)
}

func respondAccountError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, accounts.ErrDuplicateEmail):
		RespondConflict(ctx, "email_taken", "Email is already in use.")
	case errors.Is(err, accounts.ErrWeakPassword):
		RespondError(ctx, http.StatusBadRequest, "weak_password",
			"Password must be at least 8 characters.", gin.H{"minLength": accounts.MinPasswordLength})
	case errors.Is(err, accounts.ErrInvalidCredentials):
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, accounts.ErrInvalidInput):
		RespondBadRequest(ctx, "Invalid account fields", nil)
	case errors.Is(err, accounts.ErrNotFound):
		RespondNotFound(ctx, "Account not found")
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "account operation failed",
			"route", ctx.FullPath(), "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Something went wrong")
	}
}
