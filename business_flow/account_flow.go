package businessflow

import (
	"context"
	"fmt"

	"github.com/skandydoc/instagram-automation-tool/app/dto"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/repository"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// AccountFlow covers account registration and configuration
type AccountFlow interface {
	// CreateAccount registers an account. When no schedule is supplied the
	// account gets the default two-slot configuration.
	CreateAccount(ctx context.Context, req *dto.CreateAccountRequest, metadata *ClientMetadata) (*dto.AccountDTO, error)
	// GetAccount returns a single account by UUID.
	GetAccount(ctx context.Context, accountUUID string, metadata *ClientMetadata) (*dto.AccountDTO, error)
	// ListAccounts returns all registered accounts.
	ListAccounts(ctx context.Context, metadata *ClientMetadata) (*dto.ListAccountsResponse, error)
	// UpdateSchedule replaces the account's slot configuration.
	UpdateSchedule(ctx context.Context, accountUUID string, req *dto.UpdateScheduleRequest, metadata *ClientMetadata) (*dto.AccountDTO, error)
	// DeactivateAccount stops new scheduling for the account. Already
	// scheduled posts keep dispatching.
	DeactivateAccount(ctx context.Context, accountUUID string, metadata *ClientMetadata) error
	// RemainingQuota reports the account's remaining capacity for a day.
	RemainingQuota(ctx context.Context, accountUUID string, day string, metadata *ClientMetadata) (*dto.QuotaDTO, error)
}

type accountFlow struct {
	accountRepo  repository.AccountRepository
	scheduleRepo repository.PostingScheduleRepository
	quotaRepo    repository.QuotaUsageRepository
	quotaFlow    QuotaFlow
	clock        Clock
	db           *gorm.DB
}

// NewAccountFlow creates the account management flow
func NewAccountFlow(
	accountRepo repository.AccountRepository,
	scheduleRepo repository.PostingScheduleRepository,
	quotaRepo repository.QuotaUsageRepository,
	quotaFlow QuotaFlow,
	clock Clock,
	db *gorm.DB,
) AccountFlow {
	return &accountFlow{
		accountRepo:  accountRepo,
		scheduleRepo: scheduleRepo,
		quotaRepo:    quotaRepo,
		quotaFlow:    quotaFlow,
		clock:        clock,
		db:           db,
	}
}

// CreateAccount implements AccountFlow
func (f *accountFlow) CreateAccount(ctx context.Context, req *dto.CreateAccountRequest, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	existing, err := f.accountRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, NewBusinessError("ACCOUNT_ALREADY_EXISTS", fmt.Sprintf("account %q already exists", req.Username), ErrAccountAlreadyExists)
	}

	account := &models.Account{
		Username:    req.Username,
		InstagramID: req.InstagramID,
		AccessToken: req.AccessToken,
		AccountType: req.AccountType,
		Niche:       req.Niche,
		IsActive:    utils.ToPtr(true),
		CreatedAt:   f.clock.Now(),
	}
	if req.DailyCeiling != nil {
		account.DailyCeiling = *req.DailyCeiling
	}

	schedule := f.scheduleFromRequest(req.Schedule)

	err = f.inTransaction(ctx, func(txCtx context.Context) error {
		if err := f.accountRepo.Save(txCtx, account); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		schedule.AccountID = account.ID
		if err := f.scheduleRepo.Save(txCtx, schedule); err != nil {
			return fmt.Errorf("failed to save schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	account.Schedule = schedule
	d := ToAccountDTO(*account)
	return &d, nil
}

func (f *accountFlow) scheduleFromRequest(req *dto.ScheduleDTO) *models.PostingSchedule {
	schedule := &models.PostingSchedule{
		MorningSlot:     utils.DefaultMorningSlot.String(),
		EveningSlot:     utils.DefaultEveningSlot.String(),
		Timezone:        utils.DefaultTimezone,
		VarianceMinutes: utils.DefaultVarianceMinutes,
		IsActive:        utils.ToPtr(true),
		CreatedAt:       f.clock.Now(),
	}
	if req == nil {
		return schedule
	}
	if req.MorningSlot != "" {
		schedule.MorningSlot = req.MorningSlot
	}
	if req.EveningSlot != "" {
		schedule.EveningSlot = req.EveningSlot
	}
	if req.Timezone != "" {
		schedule.Timezone = req.Timezone
	}
	if req.VarianceMinutes > 0 {
		schedule.VarianceMinutes = req.VarianceMinutes
	}
	return schedule
}

func (f *accountFlow) byUUID(ctx context.Context, accountUUID string) (*models.Account, error) {
	account, err := f.accountRepo.ByUUID(ctx, accountUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "account not found", ErrAccountNotFound)
	}
	return account, nil
}

// GetAccount implements AccountFlow
func (f *accountFlow) GetAccount(ctx context.Context, accountUUID string, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	account, err := f.byUUID(ctx, accountUUID)
	if err != nil {
		return nil, err
	}
	d := ToAccountDTO(*account)
	return &d, nil
}

// ListAccounts implements AccountFlow
func (f *accountFlow) ListAccounts(ctx context.Context, metadata *ClientMetadata) (*dto.ListAccountsResponse, error) {
	accounts, err := f.accountRepo.ByFilter(ctx, models.AccountFilter{}, "created_at ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	items := make([]dto.AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, ToAccountDTO(*a))
	}

	return &dto.ListAccountsResponse{
		Accounts: items,
		Total:    int64(len(items)),
	}, nil
}

// UpdateSchedule implements AccountFlow
func (f *accountFlow) UpdateSchedule(ctx context.Context, accountUUID string, req *dto.UpdateScheduleRequest, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	account, err := f.byUUID(ctx, accountUUID)
	if err != nil {
		return nil, err
	}

	schedule, err := f.scheduleRepo.ActiveByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up schedule: %w", err)
	}

	if schedule == nil {
		schedule = &models.PostingSchedule{
			AccountID: account.ID,
			IsActive:  utils.ToPtr(true),
			CreatedAt: f.clock.Now(),
		}
	}

	schedule.MorningSlot = req.MorningSlot
	schedule.EveningSlot = req.EveningSlot
	schedule.Timezone = req.Timezone
	schedule.VarianceMinutes = req.VarianceMinutes

	if err := schedule.Validate(); err != nil {
		return nil, NewBusinessError("SCHEDULE_INVALID", err.Error(), ErrConfigurationError)
	}

	if schedule.ID == 0 {
		err = f.scheduleRepo.Save(ctx, schedule)
	} else {
		err = f.scheduleRepo.Update(ctx, schedule)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store schedule: %w", err)
	}

	account.Schedule = schedule
	d := ToAccountDTO(*account)
	return &d, nil
}

// DeactivateAccount implements AccountFlow
func (f *accountFlow) DeactivateAccount(ctx context.Context, accountUUID string, metadata *ClientMetadata) error {
	account, err := f.byUUID(ctx, accountUUID)
	if err != nil {
		return err
	}

	if err := f.accountRepo.SetActive(ctx, account.ID, false); err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	return nil
}

// RemainingQuota implements AccountFlow
func (f *accountFlow) RemainingQuota(ctx context.Context, accountUUID string, day string, metadata *ClientMetadata) (*dto.QuotaDTO, error) {
	account, err := f.byUUID(ctx, accountUUID)
	if err != nil {
		return nil, err
	}

	remaining, err := f.quotaFlow.RemainingQuota(ctx, account, day)
	if err != nil {
		return nil, fmt.Errorf("failed to read quota: %w", err)
	}

	ceiling := account.DailyCeiling
	if ceiling <= 0 {
		ceiling = utils.DefaultDailyPostCeiling
	}

	return &dto.QuotaDTO{
		AccountUUID: account.UUID.String(),
		Day:         day,
		Ceiling:     ceiling,
		Used:        ceiling - remaining,
		Remaining:   remaining,
	}, nil
}

func (f *accountFlow) inTransaction(ctx context.Context, fn func(context.Context) error) error {
	if f.db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, f.db, fn)
}
