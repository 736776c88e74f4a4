// Package api binds the Decision and Policy-ingest operations onto
// HTTP, grounded in the teacher's internal/api/rest handler idiom:
// gin.Context, ShouldBindJSON, a typed error response, RegisterRoutes
// on a *gin.RouterGroup. All domain logic lives in internal/authzsvc —
// handlers only decode, delegate, and map errors to status codes.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docaccess/authz-core/internal/apperr"
	"github.com/docaccess/authz-core/internal/authzsvc"
	"github.com/docaccess/authz-core/internal/policydoc"
	"github.com/docaccess/authz-core/pkg/types"
)

// Handler wires the decision and policy endpoints to a Service.
type Handler struct {
	svc    *authzsvc.Service
	logger *zap.Logger
}

func NewHandler(svc *authzsvc.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CheckRequest is the Decision API request body (spec §6).
type CheckRequest struct {
	ResourceID string           `json:"resourceId" binding:"required"`
	UserID     string           `json:"userId" binding:"required"`
	Action     types.Permission `json:"action" binding:"required"`
}

// CheckResponse is the Decision API response body.
type CheckResponse struct {
	Allowed          bool     `json:"allowed"`
	Message          string   `json:"message"`
	MatchedPolicies  []string `json:"matchedPolicies"`
	EvaluationTimeMs float64  `json:"evaluationTimeMs"`
}

// ErrorResponse is the shape returned for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Check handles POST /v1/check.
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(apperr.KindValidation), Message: err.Error()})
		return
	}

	start := time.Now()
	result, err := h.svc.Check(c.Request.Context(), req.ResourceID, req.UserID, req.Action)
	duration := time.Since(start)

	if err != nil {
		h.logger.Warn("check failed",
			zap.String("resource_id", req.ResourceID),
			zap.String("user_id", req.UserID),
			zap.Duration("duration", duration),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckResponse{
		Allowed:          result.Allowed,
		Message:          result.Message,
		MatchedPolicies:  result.MatchedPolicies,
		EvaluationTimeMs: result.EvaluationTimeMs,
	})
}

// PutResourcePolicy handles PUT /v1/resource-policies. The body is
// either a full ResourcePolicyDocument or the simple form (spec §4.4);
// which one arrived is discriminated by policydoc.IsSimpleForm on the
// raw body.
func (h *Handler) PutResourcePolicy(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(apperr.KindValidation), Message: err.Error()})
		return
	}

	var doc *types.ResourcePolicyDocument
	if policydoc.IsSimpleForm(raw) {
		opts, err := policydoc.DecodeSimplePolicyOptions(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(apperr.KindValidation), Message: err.Error()})
			return
		}
		doc = policydoc.Upconvert(*opts, callerIDFromContext(c))
	} else {
		doc, err = policydoc.DecodeResourcePolicyDocument(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(apperr.KindValidation), Message: err.Error()})
			return
		}
	}

	if c.Query("mode") == "merge" {
		err = h.svc.MergeResourcePolicy(c.Request.Context(), doc)
	} else {
		err = h.svc.PutResourcePolicy(c.Request.Context(), doc)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resourceId": doc.Resource.ResourceID})
}

// GetResourcePolicy handles GET /v1/resource-policies/:resourceId.
func (h *Handler) GetResourcePolicy(c *gin.Context) {
	resourceID := c.Param("resourceId")
	doc, err := h.svc.GetResourcePolicy(c.Request.Context(), resourceID)
	if err != nil {
		writeError(c, err)
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: string(apperr.KindNotFound), Message: "no policy document for resource " + resourceID})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// PutUserPolicy handles PUT /v1/user-policies/:userId. Decoded via
// policydoc.DecodeUserPolicyDocument rather than ShouldBindJSON so
// unknown fields (a misspelled filter key) are rejected instead of
// silently dropped, the same strictness the resource-policy path gets.
func (h *Handler) PutUserPolicy(c *gin.Context) {
	userID := c.Param("userId")
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(apperr.KindValidation), Message: err.Error()})
		return
	}
	doc, err := policydoc.DecodeUserPolicyDocument(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(apperr.KindValidation), Message: err.Error()})
		return
	}
	if err := h.svc.PutUserPolicy(c.Request.Context(), userID, doc); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

// RegisterRoutes registers the Decision and Policy-ingest routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	v1 := router.Group("/v1")
	{
		v1.POST("/check", h.Check)
		v1.PUT("/resource-policies", h.PutResourcePolicy)
		v1.GET("/resource-policies/:resourceId", h.GetResourcePolicy)
		v1.PUT("/user-policies/:userId", h.PutUserPolicy)
	}
}

func callerIDFromContext(c *gin.Context) string {
	if v, ok := c.Get("callerID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.GetHeader("X-Caller-Id")
}

func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindValidation:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: string(appErr.Kind), Message: appErr.Message})
		case apperr.KindNotFound:
			c.JSON(http.StatusNotFound, ErrorResponse{Error: string(appErr.Kind), Message: appErr.Message})
		case apperr.KindStore:
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: string(appErr.Kind), Message: appErr.Message})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: string(appErr.Kind), Message: appErr.Message})
		}
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: string(apperr.KindInternal), Message: err.Error()})
}
