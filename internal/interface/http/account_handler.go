package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/interface/middleware"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
	"github.com/joshuaoni/user-management-dashboard/pkg/response"
)

const photoField = "profilePhoto"

type AccountHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// accountView is the client representation; it never carries the password hash.
type accountView struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	ProfilePhoto string    `json:"profilePhoto"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toView(a *entity.Account) accountView {
	return accountView{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         string(a.Role),
		Status:       string(a.Status),
		ProfilePhoto: a.ProfilePhoto,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

type userData struct {
	User accountView `json:"user"`
}

type usersData struct {
	Users []accountView `json:"users"`
}

type registerRequest struct {
	Name         string `json:"name" form:"name" binding:"required,min=2"`
	Email        string `json:"email" form:"email" binding:"required,email"`
	Password     string `json:"password" form:"password" binding:"required,pwd"`
	Role         string `json:"role" form:"role" binding:"omitempty,role"`
	Status       string `json:"status" form:"status" binding:"omitempty,accountstatus"`
	ProfilePhoto string `json:"profilePhoto" form:"profilePhoto" binding:"omitempty,photo"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type createRequest struct {
	Name         string `json:"name" form:"name" binding:"required,min=2"`
	Email        string `json:"email" form:"email" binding:"required,email"`
	Role         string `json:"role" form:"role" binding:"omitempty,role"`
	Status       string `json:"status" form:"status" binding:"omitempty,accountstatus"`
	ProfilePhoto string `json:"profilePhoto" form:"profilePhoto" binding:"omitempty,photo"`
}

type updateRequest struct {
	Name         *string `json:"name" form:"name" binding:"omitempty,min=2"`
	Email        *string `json:"email" form:"email" binding:"omitempty,email"`
	Role         *string `json:"role" form:"role" binding:"omitempty,role"`
	Status       *string `json:"status" form:"status" binding:"omitempty,accountstatus"`
	ProfilePhoto *string `json:"profilePhoto" form:"profilePhoto" binding:"omitempty,photo"`
}

// photoUpload returns the multipart profilePhoto part, if any. The caller closes it.
func photoUpload(c *gin.Context) (*application.ImageUpload, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, func() {}, nil
	}
	fh, err := c.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &application.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func optRole(s *string) *entity.Role {
	if s == nil {
		return nil
	}
	r := entity.Role(*s)
	return &r
}

func optStatus(s *string) *entity.Status {
	if s == nil {
		return nil
	}
	st := entity.Status(*s)
	return &st
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}
	photo, closePhoto, err := photoUpload(c)
	if err != nil {
		writeBindError(c, err)
		return
	}
	defer closePhoto()

	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         entity.Role(req.Role),
		Status:       entity.Status(req.Status),
		ProfilePhoto: req.ProfilePhoto,
		Photo:        photo,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.WithToken(c, http.StatusCreated, res.Token, userData{User: toView(res.Account)})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetToken(c, res.Token, res.ExpiresAt)
	response.WithToken(c, http.StatusOK, res.Token, userData{User: toView(res.Account)})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// queryInt returns 0 for missing or malformed values so paging defaults apply.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *AccountHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), application.ListParams{
		Search: c.Query("search"),
		Role:   entity.Role(strings.TrimSpace(c.Query("role"))),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	views := make([]accountView, 0, len(res.Accounts))
	for _, a := range res.Accounts {
		views = append(views, toView(a))
	}
	response.Paginated(c, usersData{Users: views}, response.Pagination{
		Results:     len(views),
		Total:       res.Total,
		TotalPages:  res.TotalPages,
		CurrentPage: res.Page,
	})
}

func (h *AccountHandler) Me(c *gin.Context) {
	a, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, middleware.MsgNotAuthorized, nil)
		return
	}
	response.Success(c, http.StatusOK, userData{User: toView(a)})
}

func (h *AccountHandler) Get(c *gin.Context) {
	a, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userData{User: toView(a)})
}

func (h *AccountHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}
	photo, closePhoto, err := photoUpload(c)
	if err != nil {
		writeBindError(c, err)
		return
	}
	defer closePhoto()

	a, err := h.Svc.Create(c.Request.Context(), application.CreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Role:         entity.Role(req.Role),
		Status:       entity.Status(req.Status),
		ProfilePhoto: req.ProfilePhoto,
		Photo:        photo,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, userData{User: toView(a)})
}

func (h *AccountHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}
	photo, closePhoto, err := photoUpload(c)
	if err != nil {
		writeBindError(c, err)
		return
	}
	defer closePhoto()

	a, err := h.Svc.Update(c.Request.Context(), c.Param("id"), application.UpdateInput{
		Name:         req.Name,
		Email:        req.Email,
		Role:         optRole(req.Role),
		Status:       optStatus(req.Status),
		ProfilePhoto: req.ProfilePhoto,
		Photo:        photo,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userData{User: toView(a)})
}

func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}
