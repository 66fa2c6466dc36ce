package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Timestamps go out without an offset, as the real API does; clients must
// treat them as UTC.
const naiveLayout = "2006-01-02T15:04:05"

type broadcast struct {
	ID              int64    `json:"id"`
	ChannelID       int64    `json:"channel_id"`
	ChannelCode     string   `json:"channel_code"`
	ChannelName     string   `json:"channel_name"`
	SourceCode      string   `json:"source_code"`
	StartAt         string   `json:"start_at"`
	EndAt           string   `json:"end_at"`
	RawTitle        string   `json:"raw_title"`
	NormalizedTitle string   `json:"normalized_title"`
	Category        *string  `json:"category"`
	LiveURL         *string  `json:"live_url"`
	SalePrice       *int64   `json:"sale_price"`
	DiscountRate    *float64 `json:"discount_rate"`
	Status          string   `json:"status"`
	SlotHash        string   `json:"slot_hash"`
}

type channel struct {
	ID             int64   `json:"id"`
	ChannelCode    string  `json:"channel_code"`
	ChannelName    string  `json:"channel_name"`
	ChannelLiveURL *string `json:"channel_live_url"`
}

type alert struct {
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

type store struct {
	mu     sync.Mutex
	alerts []alert
	nextID int64
}

func main() {
	addr := getenv("APISTUB_ADDR", ":8000")
	s := &store{nextID: 100}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"status": "ok"}, "")
	})
	mux.HandleFunc("GET /api/v1/channels", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, channels(), "")
	})
	mux.HandleFunc("GET /api/v1/broadcasts", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, filterBroadcasts(broadcasts(time.Now().UTC()), r), "")
	})
	mux.HandleFunc("GET /api/v1/alerts", s.list)
	mux.HandleFunc("POST /api/v1/alerts", s.create)
	mux.HandleFunc("PATCH /api/v1/alerts/{id}", s.update)
	mux.HandleFunc("DELETE /api/v1/alerts/{id}", s.remove)

	log.Printf("api stub listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("listen %s: %v", addr, err)
	}
}

func channels() []channel {
	gs := "https://live.example/gsshop"
	return []channel{
		{ID: 1, ChannelCode: "gsshop", ChannelName: "GS SHOP", ChannelLiveURL: &gs},
		{ID: 2, ChannelCode: "cjonstyle", ChannelName: "CJ온스타일"},
	}
}

// broadcasts builds one ended, one live and two upcoming slots around now.
func broadcasts(now time.Time) []broadcast {
	now = now.Truncate(time.Second)
	price := int64(39900)
	rate := 12.5
	kitchen := "주방"

	mk := func(id, ch int64, code, name, title string, start time.Time, d time.Duration) broadcast {
		return broadcast{
			ID:              id,
			ChannelID:       ch,
			ChannelCode:     code,
			ChannelName:     name,
			SourceCode:      code,
			StartAt:         start.Format(naiveLayout),
			EndAt:           start.Add(d).Format(naiveLayout),
			RawTitle:        title,
			NormalizedTitle: title,
			Status:          "SCHEDULED",
			SlotHash:        code + "-" + strconv.FormatInt(id, 10),
		}
	}

	ended := mk(1, 1, "gsshop", "GS SHOP", "청소기", now.Add(-2*time.Hour), time.Hour)
	ended.Status = "ENDED"
	live := mk(2, 1, "gsshop", "GS SHOP", "에어프라이어 특가", now.Add(-10*time.Minute), time.Hour)
	live.SalePrice = &price
	live.DiscountRate = &rate
	live.Category = &kitchen
	next := mk(3, 2, "cjonstyle", "CJ온스타일", "냉장고", now.Add(2*time.Hour), time.Hour)
	later := mk(4, 1, "gsshop", "GS SHOP", "프라이팬 세트", now.Add(3*time.Hour), time.Hour)
	later.Category = &kitchen
	return []broadcast{ended, live, next, later}
}

func filterBroadcasts(all []broadcast, r *http.Request) []broadcast {
	q := r.URL.Query()
	code := q.Get("channelCode")
	keyword := q.Get("keyword")
	var cats []string
	if c := q.Get("category"); c != "" {
		cats = strings.Split(c, ",")
	}

	out := make([]broadcast, 0, len(all))
	for _, b := range all {
		if code != "" && b.ChannelCode != code {
			continue
		}
		if keyword != "" && !strings.Contains(b.RawTitle, keyword) {
			continue
		}
		if len(cats) > 0 && (b.Category == nil || !slices.Contains(cats, *b.Category)) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (s *store) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, http.StatusOK, slices.Clone(s.alerts), "")
}

func (s *store) create(w http.ResponseWriter, r *http.Request) {
	var a alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.AlertName == "" {
		reply(w, http.StatusUnprocessableEntity, nil, "invalid alert")
		return
	}
	now := time.Now().UTC().Format(naiveLayout)
	s.mu.Lock()
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt, a.UpdatedAt = now, now
	s.alerts = append(s.alerts, a)
	s.mu.Unlock()
	reply(w, http.StatusCreated, a, "created")
}

func (s *store) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.alerts, func(a alert) bool { return a.ID == id })
	if i < 0 {
		reply(w, http.StatusNotFound, nil, "alert not found")
		return
	}
	// Decoding over the stored rule leaves absent fields untouched.
	a := s.alerts[i]
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		reply(w, http.StatusUnprocessableEntity, nil, "invalid patch")
		return
	}
	a.ID = id
	a.UpdatedAt = time.Now().UTC().Format(naiveLayout)
	s.alerts[i] = a
	reply(w, http.StatusOK, a, "updated")
}

func (s *store) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.alerts, func(a alert) bool { return a.ID == id })
	if i < 0 {
		reply(w, http.StatusNotFound, nil, "alert not found")
		return
	}
	s.alerts = slices.Delete(s.alerts, i, i+1)
	reply(w, http.StatusOK, nil, "deleted")
}

func reply(w http.ResponseWriter, status int, data any, message string) {
	meta := map[string]any{"time_policy": "UTC"}
	if message != "" {
		meta["message"] = message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "meta": meta})
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
