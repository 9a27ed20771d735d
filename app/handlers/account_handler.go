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

// AccountHandlerInterface defines the contract for account handlers
type AccountHandlerInterface interface {
	CreateAccount(c fiber.Ctx) error
	GetAccount(c fiber.Ctx) error
	ListAccounts(c fiber.Ctx) error
	UpdateSchedule(c fiber.Ctx) error
	DeactivateAccount(c fiber.Ctx) error
	GetRemainingQuota(c fiber.Ctx) error
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountFlow businessflow.AccountFlow
	clock       businessflow.Clock
	validator   *validator.Validate
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountFlow businessflow.AccountFlow, clock businessflow.Clock) *AccountHandler {
	return &AccountHandler{
		accountFlow: accountFlow,
		clock:       clock,
		validator:   validator.New(),
	}
}

func (h *AccountHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AccountHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateAccount handles account registration
// @Summary Register Account
// @Description Register an Instagram account for scheduling
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Account registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AccountDTO} "Account registered"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Account already exists"
// @Router /api/v1/accounts [post]
func (h *AccountHandler) CreateAccount(c fiber.Ctx) error {
	var req dto.CreateAccountRequest
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

	result, err := h.accountFlow.CreateAccount(h.createRequestContext(c, "/api/v1/accounts"), &req, metadata)
	if err != nil {
		if businessflow.IsAccountAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Account already exists", "ACCOUNT_ALREADY_EXISTS", nil)
		}
		if businessflow.IsConfigurationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "SCHEDULE_INVALID", nil)
		}

		log.Println("Account registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account registration failed", "ACCOUNT_REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Account registered successfully", result)
}

// GetAccount handles single account queries
// @Summary Get Account
// @Description Return a registered account with its schedule
// @Tags Accounts
// @Produce json
// @Param uuid path string true "Account UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Account"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/accounts/{uuid} [get]
func (h *AccountHandler) GetAccount(c fiber.Ctx) error {
	accountUUID := c.Params("uuid")
	if accountUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account UUID is required", "MISSING_ACCOUNT_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.accountFlow.GetAccount(h.createRequestContext(c, "/api/v1/accounts/"+accountUUID), accountUUID, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Account query failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account query failed", "ACCOUNT_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account retrieved successfully", result)
}

// ListAccounts handles account listing
// @Summary List Accounts
// @Description Return all registered accounts
// @Tags Accounts
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListAccountsResponse} "Account listing"
// @Router /api/v1/accounts [get]
func (h *AccountHandler) ListAccounts(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.accountFlow.ListAccounts(h.createRequestContext(c, "/api/v1/accounts"), metadata)
	if err != nil {
		log.Println("Account listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account listing failed", "ACCOUNT_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Accounts retrieved successfully", result)
}

// UpdateSchedule handles schedule replacement
// @Summary Update Schedule
// @Description Replace the account's slot configuration
// @Tags Accounts
// @Accept json
// @Produce json
// @Param uuid path string true "Account UUID"
// @Param request body dto.UpdateScheduleRequest true "Schedule data"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Updated account"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/accounts/{uuid}/schedule [put]
func (h *AccountHandler) UpdateSchedule(c fiber.Ctx) error {
	accountUUID := c.Params("uuid")
	if accountUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account UUID is required", "MISSING_ACCOUNT_UUID", nil)
	}

	var req dto.UpdateScheduleRequest
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

	result, err := h.accountFlow.UpdateSchedule(h.createRequestContext(c, "/api/v1/accounts/"+accountUUID+"/schedule"), accountUUID, &req, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsConfigurationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "SCHEDULE_INVALID", nil)
		}

		log.Println("Schedule update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Schedule update failed", "SCHEDULE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule updated successfully", result)
}

// DeactivateAccount handles account deactivation
// @Summary Deactivate Account
// @Description Stop new scheduling for the account; already scheduled posts keep dispatching
// @Tags Accounts
// @Produce json
// @Param uuid path string true "Account UUID"
// @Success 200 {object} dto.APIResponse "Account deactivated"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/accounts/{uuid}/deactivate [post]
func (h *AccountHandler) DeactivateAccount(c fiber.Ctx) error {
	accountUUID := c.Params("uuid")
	if accountUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account UUID is required", "MISSING_ACCOUNT_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err := h.accountFlow.DeactivateAccount(h.createRequestContext(c, "/api/v1/accounts/"+accountUUID+"/deactivate"), accountUUID, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Account deactivation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account deactivation failed", "ACCOUNT_DEACTIVATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account deactivated successfully", nil)
}

// GetRemainingQuota handles quota queries
// @Summary Get Remaining Quota
// @Description Return the remaining daily capacity for an account
// @Tags Accounts
// @Produce json
// @Param uuid path string true "Account UUID"
// @Param day query string false "Calendar day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.APIResponse{data=dto.QuotaDTO} "Quota"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/accounts/{uuid}/quota [get]
func (h *AccountHandler) GetRemainingQuota(c fiber.Ctx) error {
	accountUUID := c.Params("uuid")
	if accountUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account UUID is required", "MISSING_ACCOUNT_UUID", nil)
	}

	day := c.Query("day")
	if day == "" {
		day = utils.CalendarDay(h.clock.Now(), time.UTC)
	} else if _, err := utils.ParseCalendarDay(day, time.UTC); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "day must be formatted as YYYY-MM-DD", "INVALID_DAY", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.accountFlow.RemainingQuota(h.createRequestContext(c, "/api/v1/accounts/"+accountUUID+"/quota"), accountUUID, day, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Quota query failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Quota query failed", "QUOTA_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Quota retrieved successfully", result)
}

func (h *AccountHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *AccountHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)

	return ctx
}
