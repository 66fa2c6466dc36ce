// Package presenter turns classified broadcasts into display-ready values
// shared by the JSON API and the terminal renderer.
package presenter

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/githubixx/homeshop-go/internal/application/services"
	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

// PriceUnknown is shown when a price is missing.
const PriceUnknown = "정보없음"

var korean = message.NewPrinter(language.Korean)

// Price formats a won amount with ko-KR digit grouping, e.g. "1,234원".
func Price(v *int64) string {
	if v == nil {
		return PriceUnknown
	}
	return korean.Sprintf("%d원", *v)
}

// Discount formats a discount rate with one decimal, e.g. "12.5%". A missing
// rate yields "".
func Discount(rate *float64) string {
	if rate == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *rate)
}

// Broadcast is one slot as shown to the user.
type Broadcast struct {
	ID            int64                  `json:"id"`
	ChannelID     int64                  `json:"channel_id"`
	ChannelCode   string                 `json:"channel_code,omitempty"`
	ChannelName   string                 `json:"channel_name,omitempty"`
	Title         string                 `json:"raw_title"`
	Normalized    string                 `json:"normalized_title,omitempty"`
	Category      string                 `json:"category,omitempty"`
	StartAt       time.Time              `json:"start_at"`
	EndAt         time.Time              `json:"end_at"`
	StartLabel    string                 `json:"start_label"`
	Status        domain.BroadcastStatus `json:"status"`
	StoredStatus  domain.BroadcastStatus `json:"stored_status,omitempty"`
	LiveLink      string                 `json:"live_link,omitempty"`
	ProductURL    string                 `json:"product_url,omitempty"`
	ImageURL      string                 `json:"image_url,omitempty"`
	SalePrice     *int64                 `json:"sale_price"`
	OriginalPrice *int64                 `json:"original_price"`
	Price         string                 `json:"price"`
	OriginalText  string                 `json:"original_price_text,omitempty"`
	Discount      string                 `json:"discount,omitempty"`
	PriceText     string                 `json:"price_text,omitempty"`
}

// HourBucket is a timeline hour with its broadcasts.
type HourBucket struct {
	Label      string      `json:"label"`
	Broadcasts []Broadcast `json:"broadcasts"`
}

// Dashboard is the home page payload.
type Dashboard struct {
	Reference   time.Time    `json:"reference"`
	Date        string       `json:"date"`
	Live        []Broadcast  `json:"live"`
	Upcoming    []Broadcast  `json:"upcoming"`
	Past        []Broadcast  `json:"past"`
	Timeline    []HourBucket `json:"timeline"`
	RefreshedAt *time.Time   `json:"refreshed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// NewBroadcast presents s with its status recomputed at ref.
func NewBroadcast(s domain.BroadcastSlot, ref time.Time, links map[int64]string, zone *time.Location) Broadcast {
	b := Broadcast{
		ID:            s.ID,
		ChannelID:     s.ChannelID,
		ChannelCode:   s.ChannelCode,
		ChannelName:   s.ChannelName,
		Title:         s.RawTitle,
		Normalized:    s.NormalizedTitle,
		Category:      s.Category,
		StartAt:       s.Start.In(zone),
		EndAt:         s.End.In(zone),
		StartLabel:    s.Start.In(zone).Format("15:04"),
		Status:        timewindow.Classify(s, ref),
		StoredStatus:  s.Status,
		LiveLink:      links[s.ID],
		ProductURL:    s.ProductURL,
		ImageURL:      s.ImageURL,
		SalePrice:     s.SalePrice,
		OriginalPrice: s.OriginalPrice,
		Price:         Price(s.SalePrice),
		Discount:      Discount(s.DiscountRate),
		PriceText:     s.PriceText,
	}
	if s.OriginalPrice != nil {
		b.OriginalText = Price(s.OriginalPrice)
	}
	return b
}

func broadcasts(slots []domain.BroadcastSlot, ref time.Time, links map[int64]string, zone *time.Location) []Broadcast {
	out := make([]Broadcast, 0, len(slots))
	for _, s := range slots {
		out = append(out, NewBroadcast(s, ref, links, zone))
	}
	return out
}

// NewDashboard presents a dashboard view.
func NewDashboard(v *services.View, zone *time.Location) Dashboard {
	ref := v.Reference
	p := v.Partitions
	d := Dashboard{
		Reference: ref.In(zone),
		Date:      v.Date,
		Live:      broadcasts(p.Live, ref, v.LiveLinks, zone),
		Upcoming:  broadcasts(p.Upcoming, ref, v.LiveLinks, zone),
		Past:      broadcasts(p.Past, ref, v.LiveLinks, zone),
		Timeline:  make([]HourBucket, 0, len(v.Buckets)),
	}
	for _, b := range v.Buckets {
		d.Timeline = append(d.Timeline, HourBucket{
			Label:      b.Label,
			Broadcasts: broadcasts(b.Slots, ref, v.LiveLinks, zone),
		})
	}
	if !v.RefreshedAt.IsZero() {
		t := v.RefreshedAt.In(zone)
		d.RefreshedAt = &t
	}
	if v.Err != nil {
		d.Error = v.Err.Error()
	}
	return d
}

// Trends is the hourly broadcast count for one day.
type Trends struct {
	Date   string   `json:"date"`
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// NewTrends presents hourly counts with "HH:00" labels.
func NewTrends(date string, counts [24]int) Trends {
	t := Trends{Date: date, Labels: make([]string, 24), Counts: counts[:]}
	for h := range 24 {
		t.Labels[h] = fmt.Sprintf("%02d:00", h)
	}
	return t
}
