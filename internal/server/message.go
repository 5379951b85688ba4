package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	"github.com/smallbiznis/courier/pkg/db/pagination"
)

func (s *Server) SendMessage(c *gin.Context) {
	var req messagedomain.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	msg, err := s.msgSvc.Send(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": msg})
}

func (s *Server) GetInbox(c *gin.Context) {
	page := pagination.Pagination{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", pagination.DefaultPageSize),
	}

	result, err := s.msgSvc.GetInbox(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GetGroupMessages(c *gin.Context) {
	groupID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.msgSvc.GetGroupMessages(c.Request.Context(), groupID, currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) MarkMessageRead(c *gin.Context) {
	messageID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.msgSvc.MarkRead(c.Request.Context(), currentUserID(c), messageID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
