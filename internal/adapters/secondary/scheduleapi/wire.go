package scheduleapi

import (
	"fmt"
	"time"

	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

// envelope is the {data, meta} wrapper around every API response.
type envelope[T any] struct {
	Data T    `json:"data"`
	Meta meta `json:"meta"`
}

type meta struct {
	Count      *int             `json:"count,omitempty"`
	Message    string           `json:"message,omitempty"`
	Code       string           `json:"code,omitempty"`
	TimePolicy string           `json:"time_policy,omitempty"`
	Details    []map[string]any `json:"details,omitempty"`
}

type broadcastDTO struct {
	ID              int64    `json:"id"`
	ChannelID       int64    `json:"channel_id"`
	ChannelCode     *string  `json:"channel_code"`
	ChannelName     *string  `json:"channel_name"`
	SourceCode      string   `json:"source_code"`
	StartAt         string   `json:"start_at"`
	EndAt           string   `json:"end_at"`
	RawTitle        string   `json:"raw_title"`
	NormalizedTitle string   `json:"normalized_title"`
	Category        *string  `json:"category"`
	ProductURL      *string  `json:"product_url"`
	LiveURL         *string  `json:"live_url"`
	SalePrice       *int64   `json:"sale_price"`
	OriginalPrice   *int64   `json:"original_price"`
	DiscountRate    *float64 `json:"discount_rate"`
	PriceText       *string  `json:"price_text"`
	ImageURL        *string  `json:"image_url"`
	Status          string   `json:"status"`
	SlotHash        string   `json:"slot_hash"`
}

type channelDTO struct {
	ID               int64   `json:"id"`
	ChannelCode      string  `json:"channel_code"`
	ChannelName      string  `json:"channel_name"`
	ChannelLogoURL   *string `json:"channel_logo_url"`
	ChannelLiveURL   *string `json:"channel_live_url"`
	ChannelStreamURL *string `json:"channel_stream_url"`
}

type alertDTO struct {
	ID                  int64    `json:"id"`
	AlertName           string   `json:"alert_name"`
	TargetChannelCodes  []string `json:"target_channel_codes"`
	KeywordList         []string `json:"keyword_list"`
	CategoryList        []string `json:"category_list"`
	NotifyBeforeMinutes int      `json:"notify_before_minutes"`
	DestinationType     string   `json:"destination_type"`
	DestinationValue    string   `json:"destination_value"`
	IsActive            bool     `json:"is_active"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

type alertCreateDTO struct {
	AlertName           string   `json:"alert_name"`
	TargetChannelCodes  []string `json:"target_channel_codes"`
	KeywordList         []string `json:"keyword_list"`
	CategoryList        []string `json:"category_list,omitempty"`
	NotifyBeforeMinutes int      `json:"notify_before_minutes"`
	DestinationType     string   `json:"destination_type"`
	DestinationValue    string   `json:"destination_value"`
	IsActive            bool     `json:"is_active"`
}

type alertUpdateDTO struct {
	AlertName           *string   `json:"alert_name,omitempty"`
	TargetChannelCodes  *[]string `json:"target_channel_codes,omitempty"`
	KeywordList         *[]string `json:"keyword_list,omitempty"`
	CategoryList        *[]string `json:"category_list,omitempty"`
	NotifyBeforeMinutes *int      `json:"notify_before_minutes,omitempty"`
	DestinationType     *string   `json:"destination_type,omitempty"`
	DestinationValue    *string   `json:"destination_value,omitempty"`
	IsActive            *bool     `json:"is_active,omitempty"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (d broadcastDTO) toDomain(zone *time.Location) (domain.BroadcastSlot, error) {
	start, err := timewindow.ToLocalInstant(d.StartAt, zone)
	if err != nil {
		return domain.BroadcastSlot{}, fmt.Errorf("broadcast %d start_at: %w", d.ID, err)
	}
	end, err := timewindow.ToLocalInstant(d.EndAt, zone)
	if err != nil {
		return domain.BroadcastSlot{}, fmt.Errorf("broadcast %d end_at: %w", d.ID, err)
	}
	return domain.BroadcastSlot{
		ID:              d.ID,
		ChannelID:       d.ChannelID,
		ChannelCode:     str(d.ChannelCode),
		ChannelName:     str(d.ChannelName),
		SourceCode:      d.SourceCode,
		Start:           start,
		End:             end,
		RawTitle:        d.RawTitle,
		NormalizedTitle: d.NormalizedTitle,
		Category:        str(d.Category),
		ProductURL:      str(d.ProductURL),
		LiveURL:         str(d.LiveURL),
		SalePrice:       d.SalePrice,
		OriginalPrice:   d.OriginalPrice,
		DiscountRate:    d.DiscountRate,
		PriceText:       str(d.PriceText),
		ImageURL:        str(d.ImageURL),
		Status:          domain.BroadcastStatus(d.Status),
		SlotHash:        d.SlotHash,
	}, nil
}

func (d channelDTO) toDomain() domain.Channel {
	return domain.Channel{
		ID:        d.ID,
		Code:      d.ChannelCode,
		Name:      d.ChannelName,
		LogoURL:   str(d.ChannelLogoURL),
		LiveURL:   str(d.ChannelLiveURL),
		StreamURL: str(d.ChannelStreamURL),
	}
}

// Alert timestamps are informational; a malformed one is left zero rather
// than failing the listing.
func (d alertDTO) toDomain(zone *time.Location) domain.AlertRule {
	created, _ := timewindow.ToLocalInstant(d.CreatedAt, zone)
	updated, _ := timewindow.ToLocalInstant(d.UpdatedAt, zone)
	return domain.AlertRule{
		ID:                  d.ID,
		Name:                d.AlertName,
		TargetChannelCodes:  d.TargetChannelCodes,
		Keywords:            d.KeywordList,
		Categories:          d.CategoryList,
		NotifyBeforeMinutes: d.NotifyBeforeMinutes,
		DestinationType:     domain.DestinationType(d.DestinationType),
		DestinationValue:    d.DestinationValue,
		Active:              d.IsActive,
		CreatedAt:           created,
		UpdatedAt:           updated,
	}
}

func newAlertCreateDTO(in domain.AlertRuleInput) alertCreateDTO {
	return alertCreateDTO{
		AlertName:           in.Name,
		TargetChannelCodes:  in.TargetChannelCodes,
		KeywordList:         in.Keywords,
		CategoryList:        in.Categories,
		NotifyBeforeMinutes: in.NotifyBeforeMinutes,
		DestinationType:     string(in.DestinationType),
		DestinationValue:    in.DestinationValue,
		IsActive:            in.Active,
	}
}

func newAlertUpdateDTO(p domain.AlertRulePatch) alertUpdateDTO {
	dto := alertUpdateDTO{
		AlertName:           p.Name,
		TargetChannelCodes:  p.TargetChannelCodes,
		KeywordList:         p.Keywords,
		CategoryList:        p.Categories,
		NotifyBeforeMinutes: p.NotifyBeforeMinutes,
		DestinationValue:    p.DestinationValue,
		IsActive:            p.Active,
	}
	if p.DestinationType != nil {
		t := string(*p.DestinationType)
		dto.DestinationType = &t
	}
	return dto
}
