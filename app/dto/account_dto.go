package dto

// CreateAccountRequest registers a new Instagram account
type CreateAccountRequest struct {
	Username     string       `json:"username" validate:"required,min=1,max=255"`
	InstagramID  string       `json:"instagram_id" validate:"required,min=1,max=255"`
	AccessToken  string       `json:"access_token" validate:"required"`
	AccountType  string       `json:"account_type" validate:"omitempty,oneof=business creator"`
	Niche        *string      `json:"niche,omitempty" validate:"omitempty,max=100"`
	DailyCeiling *int         `json:"daily_ceiling,omitempty" validate:"omitempty,min=1,max=25"`
	Schedule     *ScheduleDTO `json:"schedule,omitempty"`
}

// UpdateScheduleRequest replaces an account's slot configuration
type UpdateScheduleRequest struct {
	MorningSlot     string `json:"morning_slot" validate:"required,datetime=15:04"`
	EveningSlot     string `json:"evening_slot" validate:"required,datetime=15:04"`
	Timezone        string `json:"timezone" validate:"required,timezone"`
	VarianceMinutes int    `json:"variance_minutes" validate:"min=0,max=60"`
}

// ScheduleDTO is the API representation of a posting schedule
type ScheduleDTO struct {
	MorningSlot     string `json:"morning_slot" validate:"omitempty,datetime=15:04"`
	EveningSlot     string `json:"evening_slot" validate:"omitempty,datetime=15:04"`
	Timezone        string `json:"timezone" validate:"omitempty,timezone"`
	VarianceMinutes int    `json:"variance_minutes" validate:"omitempty,min=0,max=60"`
	IsActive        bool   `json:"is_active"`
}

// AccountDTO is the API representation of an account
type AccountDTO struct {
	UUID         string       `json:"uuid"`
	Username     string       `json:"username"`
	InstagramID  string       `json:"instagram_id"`
	AccountType  string       `json:"account_type"`
	Niche        *string      `json:"niche,omitempty"`
	DailyCeiling int          `json:"daily_ceiling"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    string       `json:"created_at"`
	Schedule     *ScheduleDTO `json:"schedule,omitempty"`
}

// ListAccountsResponse is the account listing payload
type ListAccountsResponse struct {
	Accounts []AccountDTO `json:"accounts"`
	Total    int64        `json:"total"`
}
