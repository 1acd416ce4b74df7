package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"temankosan/models"
	"temankosan/storage"
	"temankosan/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SearchPerPage = 12

	LiveSearchMinChars     = 2
	LiveSearchDefaultLimit = 10
	LiveSearchMaxLimit     = 20
	liveSearchTTL          = 60 * time.Second
)

type SearchService struct {
	DB    *gorm.DB
	Cache storage.Cache
}

func NewSearchService(db *gorm.DB, cache storage.Cache) *SearchService {
	return &SearchService{DB: db, Cache: cache}
}

type SearchFilter struct {
	Keyword    string
	City       string
	Type       string
	MinPrice   int64
	MaxPrice   int64
	Facilities []uint
	Sort       string
	Page       int
	PerPage    int
}

// whitelisted ORDER BY clauses
var searchSorts = map[string]string{
	"price_asc":  "kos.price ASC",
	"price_desc": "kos.price DESC",
	"rating":     "kos.rating DESC",
	"popular":    "kos.view_count DESC",
	"newest":     "kos.created_at DESC",
}

func likeLower(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func (s *SearchService) publishedWithLocation() *gorm.DB {
	return s.DB.Model(&models.Kos{}).
		Joins("JOIN locations ON locations.id = kos.location_id").
		Where("kos.status = ?", models.KosStatusPublished)
}

func (s *SearchService) filtered(f SearchFilter) *gorm.DB {
	q := s.publishedWithLocation()

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := likeLower(kw)
		q = q.Where("(LOWER(kos.name) LIKE ? OR LOWER(kos.address) LIKE ? OR LOWER(locations.city) LIKE ? OR LOWER(locations.district) LIKE ?)",
			like, like, like, like)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("locations.city = ?", city)
	}
	if t := strings.TrimSpace(f.Type); models.ValidKosType(t) {
		q = q.Where("kos.type = ?", t)
	}
	if f.MinPrice > 0 {
		q = q.Where("kos.price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("kos.price <= ?", f.MaxPrice)
	}

	ids := dedupeIDs(f.Facilities)
	if len(ids) > 0 {
		// kos must carry every selected facility
		sub := s.DB.Model(&models.KosFacility{}).
			Select("kos_id").
			Where("facility_id IN ? AND is_available = ?", ids, true).
			Group("kos_id").
			Having("COUNT(DISTINCT facility_id) = ?", len(ids))
		q = q.Where("kos.id IN (?)", sub)
	}
	return q
}

func dedupeIDs(in []uint) []uint {
	seen := make(map[uint]bool, len(in))
	out := make([]uint, 0, len(in))
	for _, id := range in {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Search runs the search page query: every filter, sorting and paging
// happen in SQL.
func (s *SearchService) Search(f SearchFilter) ([]models.Kos, utils.Pagination, error) {
	if f.PerPage <= 0 {
		f.PerPage = SearchPerPage
	}

	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("count search: %w", err)
	}
	p := utils.NewPagination(f.Page, f.PerPage, total)

	order, ok := searchSorts[f.Sort]
	if !ok {
		order = searchSorts["newest"]
	}

	var list []models.Kos
	if err := withCardImages(s.filtered(f)).
		Order(order).Order("kos.id DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&list).Error; err != nil {
		return nil, p, fmt.Errorf("search kos: %w", err)
	}
	return list, p, nil
}

type LiveSearchItem struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Address  string  `json:"address"`
	City     string  `json:"city"`
	District string  `json:"district"`
	Price    int64   `json:"price"`
	Type     string  `json:"type"`
	Rating   float64 `json:"rating"`
	Image    string  `json:"image"`
}

// ClampLiveLimit applies the default and the upper bound.
func ClampLiveLimit(limit int) int {
	if limit <= 0 {
		return LiveSearchDefaultLimit
	}
	if limit > LiveSearchMaxLimit {
		return LiveSearchMaxLimit
	}
	return limit
}

// LiveSearch answers the header search box. Queries shorter than two
// characters return an empty list, not an error.
func (s *SearchService) LiveSearch(ctx context.Context, q string, limit int) ([]LiveSearchItem, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < LiveSearchMinChars {
		return []LiveSearchItem{}, nil
	}
	limit = ClampLiveLimit(limit)
	lq := strings.ToLower(q)

	key := fmt.Sprintf("live-search:%d:%s", limit, lq)
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached []LiveSearchItem
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	like := "%" + lq + "%"
	items := []LiveSearchItem{}
	err := s.DB.WithContext(ctx).
		Table("kos").
		Select(`kos.id, kos.name, kos.slug, kos.address, locations.city, locations.district,
			kos.price, kos.type, kos.rating,
			(SELECT ki.image_url FROM kos_images ki WHERE ki.kos_id = kos.id
			 ORDER BY ki.is_primary DESC, ki.sort_order ASC LIMIT 1) AS image`).
		Joins("JOIN locations ON locations.id = kos.location_id").
		Where("kos.status = ?", models.KosStatusPublished).
		Where("(LOWER(kos.name) LIKE ? OR LOWER(kos.address) LIKE ? OR LOWER(locations.city) LIKE ? OR LOWER(locations.district) LIKE ?)",
			like, like, like, like).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(kos.name) = ? THEN 0 WHEN LOWER(kos.name) LIKE ? THEN 1 ELSE 2 END, kos.rating DESC, kos.id DESC",
			Vars:               []interface{}{lq, lq + "%"},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("live search: %w", err)
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			s.Cache.Set(ctx, key, raw, liveSearchTTL)
		} else {
			log.Printf("warning: cache live search: %v", err)
		}
	}
	return items, nil
}
