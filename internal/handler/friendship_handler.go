package handler

import (
	"puptime/internal/service"
	"puptime/pkg/errs"
	"puptime/pkg/jwt"
	"puptime/pkg/response"

	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	service *service.FriendshipService
}

func NewFriendshipHandler(s *service.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{service: s}
}

// Request 发送好友请求
func (h *FriendshipHandler) Request(c *gin.Context) {
	type req struct {
		ReceiverID uint `json:"receiver_id" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	f, err := h.service.Request(jwt.GetUserID(c), r.ReceiverID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, response.FilterFriendshipInfo(f))
}

// Accept 接受好友请求
// 角色不符时与历史行为保持一致：按参数校验错误返回400而非403
func (h *FriendshipHandler) Accept(c *gin.Context) {
	friendshipID, ok := parseIDParam(c, "friendship_id")
	if !ok {
		return
	}

	f, err := h.service.Accept(jwt.GetUserID(c), friendshipID)
	if err != nil {
		if errs.Is(err, errs.KindAuthorization) {
			response.BadRequest(c, errs.MessageOf(err))
			return
		}
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "好友请求已接受", response.FilterFriendshipInfo(f))
}

// Cancel 取消好友请求
// 角色不符时同样按400返回（与 Accept 一致的历史行为）
func (h *FriendshipHandler) Cancel(c *gin.Context) {
	friendshipID, ok := parseIDParam(c, "friendship_id")
	if !ok {
		return
	}

	_, err := h.service.Cancel(jwt.GetUserID(c), friendshipID)
	if err != nil {
		if errs.Is(err, errs.KindAuthorization) {
			response.BadRequest(c, errs.MessageOf(err))
			return
		}
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "好友请求已取消", nil)
}

// Block 拉黑对方（关系双方均可操作）
func (h *FriendshipHandler) Block(c *gin.Context) {
	friendshipID, ok := parseIDParam(c, "friendship_id")
	if !ok {
		return
	}

	f, err := h.service.Block(jwt.GetUserID(c), friendshipID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已拉黑", response.FilterFriendshipInfo(f))
}

// Unblock 解除拉黑（仅拉黑操作者本人）
func (h *FriendshipHandler) Unblock(c *gin.Context) {
	friendshipID, ok := parseIDParam(c, "friendship_id")
	if !ok {
		return
	}

	if err := h.service.Unblock(jwt.GetUserID(c), friendshipID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已解除拉黑", nil)
}

// ListFriends 获取好友列表（已接受，双向）
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	items, err := h.service.Friends(jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterFriendshipList(items))
}

// ListPending 获取待处理请求（发出与收到的都含）
func (h *FriendshipHandler) ListPending(c *gin.Context) {
	items, err := h.service.Pending(jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterFriendshipList(items))
}

// ListBlocked 获取当前用户拉黑的关系列表
func (h *FriendshipHandler) ListBlocked(c *gin.Context) {
	items, err := h.service.Blocked(jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterFriendshipList(items))
}
