package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
)

type grantRequest struct {
	Feature  string `json:"feature"`
	Duration string `json:"duration"`
}

type purchaseRequest struct {
	Feature string `json:"feature"`
	Months  int    `json:"months"`
}

func (s *Server) GrantEntitlement(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	duration, err := time.ParseDuration(strings.TrimSpace(req.Duration))
	if err != nil {
		AbortWithError(c, newValidationError("duration", "invalid_duration", "invalid duration"))
		return
	}

	ent, err := s.entSvc.Grant(
		c.Request.Context(),
		currentUserID(c),
		entitlementdomain.Feature(strings.TrimSpace(req.Feature)),
		duration,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ent})
}

func (s *Server) PurchaseFeature(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ent, err := s.billingSvc.PurchaseFeature(
		c.Request.Context(),
		currentUserID(c),
		entitlementdomain.Feature(strings.TrimSpace(req.Feature)),
		req.Months,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ent})
}

func (s *Server) RevokeEntitlement(c *gin.Context) {
	feature := entitlementdomain.Feature(strings.TrimSpace(c.Param("feature")))

	removed, err := s.entSvc.Revoke(c.Request.Context(), currentUserID(c), feature)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"revoked": removed}})
}

func (s *Server) ListEntitlements(c *gin.Context) {
	items, err := s.entSvc.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
