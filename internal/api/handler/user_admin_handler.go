package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

// UserAdminHandler exposes account management to administrators.
type UserAdminHandler struct {
	users ports.UserAdminService
}

func NewUserAdminHandler(users ports.UserAdminService) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

type listUsersRequest struct {
	Name    string `json:"name" query:"name"`
	Email   string `json:"email" query:"email" validate:"omitempty,email"`
	Role    string `json:"role" query:"role"`
	Search  string `json:"search" query:"search"`
	Page    int    `json:"page" query:"page" validate:"gte=0"`
	PerPage int    `json:"perPage" query:"perPage" validate:"gte=0,lte=100"`
}

type addUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   string `json:"roleId" validate:"required"`
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	RoleID   string `json:"roleId" validate:"required"`
}

type updateRoleRequest struct {
	RoleID string `json:"roleId" validate:"required"`
}

type userPageResponse struct {
	Data       []*domain.User `json:"data"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
}

// List returns one page of users.
//
// @Summary      List users
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        name     query     string  false  "Name contains"
// @Param        email    query     string  false  "Exact e-mail"
// @Param        role     query     string  false  "Role id or name"
// @Param        search   query     string  false  "Name or e-mail contains"
// @Param        page     query     int     false  "Page, from 1"
// @Param        perPage  query     int     false  "Page size, at most 100"
// @Success      200      {object}  userPageResponse
// @Failure      400      {object}  errorBody
// @Failure      401      {object}  errorBody
// @Failure      403      {object}  errorBody
// @Router       /api/user [get]
func (h *UserAdminHandler) List(c echo.Context) error {
	var req listUsersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	page, err := h.users.List(c.Request().Context(), domain.UserFilter{
		Name:    req.Name,
		Email:   req.Email,
		Role:    req.Role,
		Search:  req.Search,
		Page:    req.Page,
		PerPage: req.PerPage,
	})
	if err != nil {
		return err
	}

	data := page.Users
	if data == nil {
		data = []*domain.User{}
	}
	return c.JSON(http.StatusOK, userPageResponse{Data: data, TotalItems: page.TotalItems, TotalPages: page.TotalPages})
}

// Get returns one user.
//
// @Summary      Get user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  userResponse
// @Failure      401     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Failure      404     {object}  errorBody
// @Router       /api/user/{userId} [get]
func (h *UserAdminHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Add creates a user with the given role.
//
// @Summary      Add user
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addUserRequest  true  "New user"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /api/user [post]
func (h *UserAdminHandler) Add(c echo.Context) error {
	var req addUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Add(c.Request().Context(), ports.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.RoleID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Update replaces a user's profile and role.
//
// @Summary      Update user
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string             true  "User ID"
// @Param        body    body      updateUserRequest  true  "User details"
// @Success      200     {object}  userResponse
// @Failure      400     {object}  errorBody
// @Failure      401     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Failure      404     {object}  errorBody
// @Router       /api/user/{userId} [put]
func (h *UserAdminHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), c.Param("userId"), ports.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.RoleID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateRole assigns a role.
//
// @Summary      Update user role
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string             true  "User ID"
// @Param        body    body      updateRoleRequest  true  "Role"
// @Success      200     {object}  userResponse
// @Failure      400     {object}  errorBody
// @Failure      401     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Failure      404     {object}  errorBody
// @Router       /api/user/{userId}/role [put]
func (h *UserAdminHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateRole(c.Request().Context(), c.Param("userId"), req.RoleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Delete removes a user and ends their sessions.
//
// @Summary      Delete user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  messageResponse
// @Failure      401     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Router       /api/user/{userId} [delete]
func (h *UserAdminHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("userId"), clientIP(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User successfully deleted."})
}
