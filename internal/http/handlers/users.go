package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/socialhub/internal/accounts"
	"github.com/geocoder89/socialhub/internal/config"
	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	List(ctx context.Context, f account.ListFilter) (accounts.Page, error)
}

type UsersHandler struct {
	users UserDirectory
}

func NewUsersHandler(users UserDirectory) *UsersHandler {
	return &UsersHandler{users: users}
}

type ListResponse[T any] struct {
	Items      []T     `json:"items"`
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor"`
}

// AdminUser is the admin listing row. Unlike the public overview it carries
// the email and role.
type AdminUser struct {
	ID        string       `json:"id"`
	FullName  string       `json:"fullName"`
	Email     string       `json:"email"`
	AvatarURL *string      `json:"avatarUrl"`
	Role      account.Role `json:"role"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (h *UsersHandler) List(ctx *gin.Context) {
	page, limit, ok := h.page(ctx)
	if !ok {
		return
	}

	items := make([]account.Overview, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, a.Overview())
	}

	respondPage(ctx, items, limit, page.Next)
}

func (h *UsersHandler) AdminList(ctx *gin.Context) {
	page, limit, ok := h.page(ctx)
	if !ok {
		return
	}

	items := make([]AdminUser, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, AdminUser{
			ID:        a.ID,
			FullName:  a.FullName,
			Email:     a.Email,
			AvatarURL: a.AvatarURL,
			Role:      a.Role,
			CreatedAt: a.CreatedAt,
		})
	}

	respondPage(ctx, items, limit, page.Next)
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.users.GetByID(cctx, id)
	if err != nil {
		respondAccountError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, a.Detail())
}

func (h *UsersHandler) page(ctx *gin.Context) (accounts.Page, int, bool) {
	f := account.ListFilter{}

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			RespondBadRequest(ctx, "Invalid limit", gin.H{"field": "limit"})
			return accounts.Page{}, 0, false
		}
		f.Limit = n
	}

	if v := ctx.Query("cursor"); v != "" {
		c, err := utils.DecodeAccountCursor(v)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", gin.H{"field": "cursor"})
			return accounts.Page{}, 0, false
		}
		f.After = &c
	}

	f = f.Normalize()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.users.List(cctx, f)
	if err != nil {
		respondAccountError(ctx, err)
		return accounts.Page{}, 0, false
	}

	return page, f.Limit, true
}

func respondPage[T any](ctx *gin.Context, items []T, limit int, next *account.Cursor) {
	resp := ListResponse[T]{Items: items, Limit: limit}

	if next != nil {
		tok, err := utils.EncodeAccountCursor(*next)
		if err != nil {
			RespondInternal(ctx, "Could not build cursor")
			return
		}
		resp.NextCursor = &tok
	}

	RespondJSONWithETag(ctx, http.StatusOK, resp)
}
