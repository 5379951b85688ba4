package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	groupdomain "github.com/smallbiznis/courier/internal/group/domain"
)

type createGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	group, err := s.groupSvc.CreateGroup(c.Request.Context(), currentUserID(c), groupdomain.CreateGroupRequest{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": group})
}

func (s *Server) GetGroup(c *gin.Context) {
	groupID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.groupSvc.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) ListGroups(c *gin.Context) {
	items, err := s.groupSvc.ListGroupsForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) AddGroupMember(c *gin.Context) {
	groupID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	newUserID, err := parseID(req.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupSvc.AddMember(c.Request.Context(), groupID, newUserID, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"added": true}})
}

func (s *Server) RemoveGroupMember(c *gin.Context) {
	groupID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetUserID, err := parseID(c.Param("userId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupSvc.RemoveMember(c.Request.Context(), groupID, targetUserID, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": true}})
}

func (s *Server) DeleteGroup(c *gin.Context) {
	groupID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupSvc.DeleteGroup(c.Request.Context(), groupID, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
