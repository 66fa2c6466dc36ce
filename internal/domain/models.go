package domain

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// BroadcastStatus is the airing state of a broadcast slot
type BroadcastStatus string

const (
	StatusScheduled BroadcastStatus = "SCHEDULED"
	StatusLive      BroadcastStatus = "LIVE"
	StatusEnded     BroadcastStatus = "ENDED"
)

// Valid reports whether s is one of the known statuses.
func (s BroadcastStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusEnded:
		return true
	}
	return false
}

// BroadcastSlot is one home-shopping broadcast as delivered by the schedule API.
// Start and End are absolute instants; Status is the value stored upstream and
// may be stale.
type BroadcastSlot struct {
	ID              int64
	ChannelID       int64
	ChannelCode     string
	ChannelName     string
	SourceCode      string
	Start           time.Time
	End             time.Time
	RawTitle        string
	NormalizedTitle string
	Category        string
	ProductURL      string
	LiveURL         string
	SalePrice       *int64
	OriginalPrice   *int64
	DiscountRate    *float64
	PriceText       string
	ImageURL        string
	Status          BroadcastStatus
	SlotHash        string
}

// Channel represents a home-shopping channel
type Channel struct {
	ID        int64
	Code      string
	Name      string
	LogoURL   string
	LiveURL   string
	StreamURL string
}

// DestinationType is where an alert notification is delivered
type DestinationType string

const (
	DestinationSlack DestinationType = "SLACK"
	DestinationEmail DestinationType = "EMAIL"
)

// AlertRule is a saved notification rule
type AlertRule struct {
	ID                  int64
	Name                string
	TargetChannelCodes  []string
	Keywords            []string
	Categories          []string
	NotifyBeforeMinutes int
	DestinationType     DestinationType
	DestinationValue    string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AlertRuleInput carries the fields of a new alert rule.
type AlertRuleInput struct {
	Name                string          `validate:"required,max=200"`
	TargetChannelCodes  []string        `validate:"required,min=1,dive,required"`
	Keywords            []string        `validate:"required,min=1,dive,required"`
	Categories          []string        `validate:"omitempty,dive,required"`
	NotifyBeforeMinutes int             `validate:"gte=0,lte=1440"`
	DestinationType     DestinationType `validate:"required,oneof=SLACK EMAIL"`
	DestinationValue    string          `validate:"required"`
	Active              bool
}

// AlertRulePatch carries a partial update; nil fields are left unchanged.
type AlertRulePatch struct {
	Name                *string          `validate:"omitempty,min=1,max=200"`
	TargetChannelCodes  *[]string        `validate:"omitempty,min=1,dive,required"`
	Keywords            *[]string        `validate:"omitempty,min=1,dive,required"`
	Categories          *[]string        `validate:"omitempty,dive,required"`
	NotifyBeforeMinutes *int             `validate:"omitempty,gte=0,lte=1440"`
	DestinationType     *DestinationType `validate:"omitempty,oneof=SLACK EMAIL"`
	DestinationValue    *string          `validate:"omitempty,min=1"`
	Active              *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p AlertRulePatch) IsEmpty() bool {
	return p.Name == nil && p.TargetChannelCodes == nil && p.Keywords == nil &&
		p.Categories == nil && p.NotifyBeforeMinutes == nil && p.DestinationType == nil &&
		p.DestinationValue == nil && p.Active == nil
}

// Apply copies the set fields of p onto r.
func (r *AlertRule) Apply(p AlertRulePatch) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.TargetChannelCodes != nil {
		r.TargetChannelCodes = *p.TargetChannelCodes
	}
	if p.Keywords != nil {
		r.Keywords = *p.Keywords
	}
	if p.Categories != nil {
		r.Categories = *p.Categories
	}
	if p.NotifyBeforeMinutes != nil {
		r.NotifyBeforeMinutes = *p.NotifyBeforeMinutes
	}
	if p.DestinationType != nil {
		r.DestinationType = *p.DestinationType
	}
	if p.DestinationValue != nil {
		r.DestinationValue = *p.DestinationValue
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
}

// BroadcastQuery filters the broadcast listing. Date is a KST calendar day
// in YYYY-MM-DD form; empty fields are not sent.
type BroadcastQuery struct {
	Date        string
	ChannelCode string
	Keyword     string
	Categories  []string
	Status      BroadcastStatus
}

// IsDefault reports whether only the date is set.
func (q BroadcastQuery) IsDefault() bool {
	return q.ChannelCode == "" && q.Keyword == "" && len(q.Categories) == 0 && q.Status == ""
}

// Params returns the query string parameters understood by the schedule API.
func (q BroadcastQuery) Params() map[string]string {
	params := make(map[string]string, 5)
	if q.Date != "" {
		params["date"] = q.Date
	}
	if q.ChannelCode != "" {
		params["channelCode"] = q.ChannelCode
	}
	if q.Keyword != "" {
		params["keyword"] = q.Keyword
	}
	if len(q.Categories) > 0 {
		params["category"] = strings.Join(q.Categories, ",")
	}
	if q.Status != "" {
		params["status"] = string(q.Status)
	}
	return params
}

// Key returns a canonical encoding of the query, suitable as a cache key.
// Category order does not matter.
func (q BroadcastQuery) Key() string {
	cats := append([]string(nil), q.Categories...)
	sort.Strings(cats)
	norm := q
	norm.Categories = cats

	values := url.Values{}
	for k, v := range norm.Params() {
		values.Set(k, v)
	}
	return values.Encode()
}
