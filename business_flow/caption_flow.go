package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/repository"
	"github.com/skandydoc/instagram-automation-tool/utils"
)

// CaptionRequest describes how the final caption should be composed
type CaptionRequest struct {
	Caption      *string
	TemplateName *string
	CustomText   *string
	AddHashtags  bool
}

// CaptionFlow composes the final caption of a post: either the raw caption,
// or a rendered template, optionally followed by a random hashtag block.
type CaptionFlow interface {
	Compose(ctx context.Context, account *models.Account, req CaptionRequest, scheduledTime time.Time) (*string, error)
}

type captionFlow struct {
	templateRepo repository.CaptionTemplateRepository
	hashtagRepo  repository.HashtagRepository
}

// NewCaptionFlow creates the caption composition flow
func NewCaptionFlow(templateRepo repository.CaptionTemplateRepository, hashtagRepo repository.HashtagRepository) CaptionFlow {
	return &captionFlow{
		templateRepo: templateRepo,
		hashtagRepo:  hashtagRepo,
	}
}

// Compose implements CaptionFlow
func (f *captionFlow) Compose(ctx context.Context, account *models.Account, req CaptionRequest, scheduledTime time.Time) (*string, error) {
	var body string

	switch {
	case req.TemplateName != nil && *req.TemplateName != "":
		tpl, err := f.findTemplate(ctx, *req.TemplateName)
		if err != nil {
			return nil, err
		}
		loc := time.UTC
		if account.Schedule != nil {
			if l, lerr := account.Schedule.Location(); lerr == nil {
				loc = l
			}
		}
		body = renderTemplate(tpl.Template, account, req.CustomText, scheduledTime.In(loc))
	case req.Caption != nil:
		body = *req.Caption
	}

	if req.AddHashtags {
		block, err := f.hashtagBlock(ctx)
		if err != nil {
			return nil, err
		}
		if block != "" {
			if body != "" {
				body += "\n\n"
			}
			body += block
		}
	}

	if body == "" {
		return nil, nil
	}
	return &body, nil
}

func (f *captionFlow) findTemplate(ctx context.Context, name string) (*models.CaptionTemplate, error) {
	active := true
	templates, err := f.templateRepo.ByFilter(ctx, models.CaptionTemplateFilter{Name: &name, IsActive: &active}, "id ASC", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to look up caption template: %w", err)
	}
	if len(templates) == 0 {
		return nil, NewBusinessError("CAPTION_TEMPLATE_NOT_FOUND", fmt.Sprintf("caption template %q not found", name), ErrCaptionTemplateNotFound)
	}
	return templates[0], nil
}

func (f *captionFlow) hashtagBlock(ctx context.Context) (string, error) {
	tags, err := f.hashtagRepo.RandomActive(ctx, utils.DefaultHashtagCount)
	if err != nil {
		return "", fmt.Errorf("failed to pick hashtags: %w", err)
	}
	if len(tags) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(tags))
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		tag := t.Hashtag
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		parts = append(parts, tag)
		ids = append(ids, t.ID)
	}

	if err := f.hashtagRepo.IncrementUsage(ctx, ids); err != nil {
		return "", fmt.Errorf("failed to record hashtag usage: %w", err)
	}

	return strings.Join(parts, " "), nil
}

// renderTemplate substitutes the supported {variable} placeholders. The
// scheduled time must already be in the account's timezone.
func renderTemplate(tpl string, account *models.Account, customText *string, localTime time.Time) string {
	custom := ""
	if customText != nil {
		custom = *customText
	}

	r := strings.NewReplacer(
		"{account_name}", account.Username,
		"{date}", localTime.Format("January 2, 2006"),
		"{time}", localTime.Format("3:04 PM"),
		"{day_of_week}", localTime.Weekday().String(),
		"{time_period}", timePeriod(localTime.Hour()),
		"{custom_text}", custom,
	)
	return r.Replace(tpl)
}

func timePeriod(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}
