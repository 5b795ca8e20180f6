package handler

import (
	"strconv"
	"time"

	"puptime/internal/service"
	"puptime/pkg/errs"
	"puptime/pkg/jwt"
	"puptime/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Username     string  `json:"username" binding:"required"`
		Email        string  `json:"email" binding:"required"`
		Password     string  `json:"password" binding:"required"`
		GoogleAuthID *string `json:"google_auth_id"`
		Gender       string  `json:"gender"`
		BirthDay     string  `json:"birth_day"` // YYYY-MM-DD
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	in := service.RegisterInput{
		Username:     r.Username,
		Email:        r.Email,
		Password:     r.Password,
		GoogleAuthID: r.GoogleAuthID,
		Gender:       r.Gender,
	}
	if r.BirthDay != "" {
		birthDay, err := time.ParseInLocation("2006-01-02", r.BirthDay, time.Local)
		if err != nil {
			response.BadRequest(c, "invalid birth_day format, use YYYY-MM-DD")
			return
		}
		in.BirthDay = &birthDay
	}

	user, token, err := h.service.Register(in)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, &response.AuthResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Login(r.Email, r.Password)
	if err != nil {
		// 凭证错误统一返回401
		if errs.Is(err, errs.KindAuthorization) {
			response.Unauthorized(c, errs.MessageOf(err))
			return
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, &response.AuthResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// GetProfile 获取当前用户资料（需要JWT认证）
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.service.Get(jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// GetUser 根据ID获取用户
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	user, err := h.service.Get(userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// SearchUsers 按用户名搜索用户
func (h *UserHandler) SearchUsers(c *gin.Context) {
	users, err := h.service.Search(c.Query("q"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	result := make([]*response.UserInfo, 0, len(users))
	for _, u := range users {
		result = append(result, response.FilterUserInfo(u))
	}
	response.Success(c, result)
}

// UpdateUser 更新用户资料（仅本人）
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	type req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Gender   *string `json:"gender"`
		BirthDay *string `json:"birth_day"` // YYYY-MM-DD
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	in := service.UpdateUserInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Gender:   r.Gender,
	}
	if r.BirthDay != nil {
		birthDay, err := time.ParseInLocation("2006-01-02", *r.BirthDay, time.Local)
		if err != nil {
			response.BadRequest(c, "invalid birth_day format, use YYYY-MM-DD")
			return
		}
		in.BirthDay = &birthDay
	}

	user, err := h.service.Update(jwt.GetUserID(c), userID, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// DeleteUser 删除账号（仅本人，级联删除好友关系与任务）
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.service.Delete(jwt.GetUserID(c), userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "账号已删除", nil)
}

// parseIDParam 解析路径中的数字ID，失败时直接响应400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}
