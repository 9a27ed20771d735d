package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/skandydoc/instagram-automation-tool/app/dto"
	businessflow "github.com/skandydoc/instagram-automation-tool/business_flow"
	"github.com/skandydoc/instagram-automation-tool/utils"
)

// PostHandlerInterface defines the contract for post handlers
type PostHandlerInterface interface {
	CreatePost(c fiber.Ctx) error
	GetPostStatus(c fiber.Ctx) error
	ListPosts(c fiber.Ctx) error
	CancelPost(c fiber.Ctx) error
	ResubmitPost(c fiber.Ctx) error
	ExportPosts(c fiber.Ctx) error
}

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	allocationFlow businessflow.AllocationFlow
	postFlow       businessflow.PostFlow
	validator      *validator.Validate
}

// NewPostHandler creates a new post handler
func NewPostHandler(allocationFlow businessflow.AllocationFlow, postFlow businessflow.PostFlow) *PostHandler {
	return &PostHandler{
		allocationFlow: allocationFlow,
		postFlow:       postFlow,
		validator:      validator.New(),
	}
}

func (h *PostHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PostHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreatePost handles post submission
// @Summary Schedule Post
// @Description Submit a post for scheduling with one of the five schedule types
// @Tags Posts
// @Accept json
// @Produce json
// @Param request body dto.CreatePostRequest true "Post submission data"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePostResponse} "Post scheduled successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Failure 409 {object} dto.APIResponse "Daily quota exhausted"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts [post]
func (h *PostHandler) CreatePost(c fiber.Ctx) error {
	var req dto.CreatePostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.allocationFlow.CreatePost(h.createRequestContext(c, "/api/v1/posts"), &req, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Account is deactivated", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsQuotaExceeded(err) {
			details := fiber.Map{}
			if suggested := businessflow.SuggestedNextDay(err); suggested != "" {
				details["suggested_day"] = suggested
			}
			return h.ErrorResponse(c, fiber.StatusConflict, "Daily post quota exhausted", "QUOTA_EXCEEDED", details)
		}
		if businessflow.IsSchedulingHorizonExceeded(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No capacity within the scheduling horizon", "SCHEDULING_HORIZON_EXCEEDED", nil)
		}
		if businessflow.IsScheduleTimeNotPresent(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "A valid scheduled_time is required for specific scheduling", "SCHEDULE_TIME_REQUIRED", nil)
		}
		if businessflow.IsScheduleTimeInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "scheduled_time is in the past", "SCHEDULE_TIME_IN_PAST", nil)
		}
		if businessflow.IsInvalidContentType(err) || businessflow.IsInvalidScheduleType(err) || businessflow.IsMediaRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_SUBMISSION", nil)
		}
		if businessflow.IsConfigurationError(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Account schedule is missing or invalid", "SCHEDULE_NOT_CONFIGURED", nil)
		}
		if businessflow.IsCaptionTemplateNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Caption template not found", "CAPTION_TEMPLATE_NOT_FOUND", nil)
		}

		log.Println("Post creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post creation failed", "POST_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Post scheduled successfully", result)
}

// GetPostStatus handles post status queries
// @Summary Get Post Status
// @Description Return the lifecycle status of a post, including retry details
// @Tags Posts
// @Produce json
// @Param uuid path string true "Post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.PostStatusDTO} "Post status"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Router /api/v1/posts/{uuid}/status [get]
func (h *PostHandler) GetPostStatus(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.postFlow.GetStatus(h.createRequestContext(c, "/api/v1/posts/"+postUUID+"/status"), postUUID, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}

		log.Println("Post status query failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post status query failed", "POST_STATUS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Post status retrieved successfully", result)
}

// ListPosts handles post listing
// @Summary List Posts
// @Description Return a filtered, paginated listing of posts
// @Tags Posts
// @Produce json
// @Param account_uuid query string false "Filter by account UUID"
// @Param status query string false "Filter by status"
// @Param day query string false "Filter by quota day (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListPostsResponse} "Post listing"
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Router /api/v1/posts [get]
func (h *PostHandler) ListPosts(c fiber.Ctx) error {
	var req dto.ListPostsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.postFlow.ListPosts(h.createRequestContext(c, "/api/v1/posts"), &req, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_PAGINATION", nil)
		}

		log.Println("Post listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post listing failed", "POST_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Posts retrieved successfully", result)
}

// CancelPost handles post cancellation
// @Summary Cancel Post
// @Description Cancel a scheduled post and release its quota slot
// @Tags Posts
// @Produce json
// @Param uuid path string true "Post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CancelPostResponse} "Post cancelled"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 409 {object} dto.APIResponse "Post can no longer be cancelled"
// @Router /api/v1/posts/{uuid}/cancel [post]
func (h *PostHandler) CancelPost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.postFlow.Cancel(h.createRequestContext(c, "/api/v1/posts/"+postUUID+"/cancel"), postUUID, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostNotCancellable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Post can no longer be cancelled", "POST_NOT_CANCELLABLE", nil)
		}

		log.Println("Post cancellation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post cancellation failed", "POST_CANCELLATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Post cancelled successfully", result)
}

// ResubmitPost handles resubmission of failed posts
// @Summary Resubmit Post
// @Description Create a fresh scheduled post from a failed one
// @Tags Posts
// @Produce json
// @Param uuid path string true "Post UUID"
// @Success 201 {object} dto.APIResponse{data=dto.ResubmitPostResponse} "Post resubmitted"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 409 {object} dto.APIResponse "Post is not in a resubmittable state"
// @Router /api/v1/posts/{uuid}/resubmit [post]
func (h *PostHandler) ResubmitPost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.postFlow.Resubmit(h.createRequestContext(c, "/api/v1/posts/"+postUUID+"/resubmit"), postUUID, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostNotResubmittable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Only failed posts can be resubmitted", "POST_NOT_RESUBMITTABLE", nil)
		}
		if businessflow.IsQuotaExceeded(err) {
			details := fiber.Map{}
			if suggested := businessflow.SuggestedNextDay(err); suggested != "" {
				details["suggested_day"] = suggested
			}
			return h.ErrorResponse(c, fiber.StatusConflict, "Daily post quota exhausted", "QUOTA_EXCEEDED", details)
		}

		log.Println("Post resubmission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post resubmission failed", "POST_RESUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Post resubmitted successfully", result)
}

// ExportPosts handles xlsx export of the post listing
// @Summary Export Posts
// @Description Download the filtered post listing as an xlsx workbook
// @Tags Posts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param account_uuid query string false "Filter by account UUID"
// @Param status query string false "Filter by status"
// @Param day query string false "Filter by quota day (YYYY-MM-DD)"
// @Success 200 {file} binary "xlsx workbook"
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Router /api/v1/posts/export [get]
func (h *PostHandler) ExportPosts(c fiber.Ctx) error {
	var req dto.ListPostsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	content, filename, err := h.postFlow.ExportPosts(h.createRequestContext(c, "/api/v1/posts/export"), &req, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Post export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post export failed", "POST_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

func (h *PostHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PostHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
