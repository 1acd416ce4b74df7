package services

import (
	"context"
	"testing"
	"time"

	"temankosan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memCache struct {
	data map[string][]byte
	sets int
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.data[key] = value
	m.sets++
}

func seedSearchData(t *testing.T, db *gorm.DB) (wifi, ac models.Facility) {
	t.Helper()
	bdg := seedLocation(t, db, "Bandung", "Coblong")
	jkt := seedLocation(t, db, "Jakarta Selatan", "Tebet")

	wifi = models.Facility{Name: "WiFi", IsActive: true}
	ac = models.Facility{Name: "AC", IsActive: true}
	require.NoError(t, db.Create(&wifi).Error)
	require.NoError(t, db.Create(&ac).Error)

	melati := seedKos(t, db, bdg, "melati", 1200000, 5)
	mawar := seedKos(t, db, bdg, "mawar-melati", 900000, 5)
	anggrek := seedKos(t, db, jkt, "anggrek", 2500000, 5)
	draft := seedKos(t, db, bdg, "melati-draft", 500000, 5)

	require.NoError(t, db.Model(&melati).Updates(map[string]interface{}{"rating": 4.5, "type": models.KosTypePutri}).Error)
	require.NoError(t, db.Model(&mawar).Update("rating", 4.9).Error)
	require.NoError(t, db.Model(&anggrek).Update("view_count", 100).Error)
	require.NoError(t, db.Model(&draft).Update("status", models.KosStatusDraft).Error)

	links := []models.KosFacility{
		{KosID: melati.ID, FacilityID: wifi.ID, IsAvailable: true},
		{KosID: melati.ID, FacilityID: ac.ID, IsAvailable: true},
		{KosID: mawar.ID, FacilityID: wifi.ID, IsAvailable: true},
		// legacy duplicate must not satisfy a two-facility filter on its own
		{KosID: mawar.ID, FacilityID: wifi.ID, IsAvailable: true},
		{KosID: anggrek.ID, FacilityID: ac.ID, IsAvailable: true},
	}
	require.NoError(t, db.Create(&links).Error)

	require.NoError(t, db.Create(&models.KosImage{KosID: melati.ID, ImageURL: "/uploads/kos/melati.jpg", IsPrimary: true}).Error)
	return wifi, ac
}

func slugs(list []models.Kos) []string {
	out := make([]string, len(list))
	for i, k := range list {
		out[i] = k.Slug
	}
	return out
}

func TestSearchFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSearchService(db, nil)
	wifi, ac := seedSearchData(t, db)

	cases := []struct {
		name string
		f    SearchFilter
		want []string
	}{
		{"keyword over name", SearchFilter{Keyword: "MELATI", Sort: "price_asc"}, []string{"mawar-melati", "melati"}},
		{"keyword over city", SearchFilter{Keyword: "jakarta"}, []string{"anggrek"}},
		{"keyword over district", SearchFilter{Keyword: "coblong", Sort: "rating"}, []string{"mawar-melati", "melati"}},
		{"city", SearchFilter{City: "Bandung", Sort: "price_desc"}, []string{"melati", "mawar-melati"}},
		{"type", SearchFilter{Type: models.KosTypePutri}, []string{"melati"}},
		{"price range", SearchFilter{MinPrice: 1000000, MaxPrice: 2000000}, []string{"melati"}},
		{"all facilities", SearchFilter{Facilities: []uint{wifi.ID, ac.ID}}, []string{"melati"}},
		{"one facility", SearchFilter{Facilities: []uint{ac.ID}, Sort: "popular"}, []string{"anggrek", "melati"}},
		{"repeated facility id", SearchFilter{Facilities: []uint{wifi.ID, wifi.ID}, Sort: "price_asc"}, []string{"mawar-melati", "melati"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, p, err := svc.Search(tc.f)
			require.NoError(t, err)
			assert.Equal(t, tc.want, slugs(list))
			assert.Equal(t, int64(len(tc.want)), p.Total)
		})
	}
}

func TestSearchPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSearchService(db, nil)
	seedSearchData(t, db)

	list, p, err := svc.Search(SearchFilter{Page: 2, PerPage: 2, Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Total)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, []string{"anggrek"}, slugs(list))
}

func TestLiveSearch(t *testing.T) {
	db := setupTestDB(t)
	cache := &memCache{data: map[string][]byte{}}
	svc := NewSearchService(db, cache)
	seedSearchData(t, db)
	ctx := context.Background()

	t.Run("short query is empty, not an error", func(t *testing.T) {
		for _, q := range []string{"", " ", "m", " m "} {
			items, err := svc.LiveSearch(ctx, q, 10)
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		}
		assert.Zero(t, cache.sets)
	})

	t.Run("exact match first then prefix then rating", func(t *testing.T) {
		items, err := svc.LiveSearch(ctx, "Melati", 0)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "melati", items[0].Slug)
		assert.Equal(t, "/uploads/kos/melati.jpg", items[0].Image)
		assert.Equal(t, "Bandung", items[0].City)
		assert.Equal(t, "mawar-melati", items[1].Slug)
	})

	t.Run("served from cache", func(t *testing.T) {
		before := cache.sets
		require.NoError(t, db.Model(&models.Kos{}).Where("slug = ?", "melati").Update("status", models.KosStatusDraft).Error)
		items, err := svc.LiveSearch(ctx, "melati", 0)
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, before, cache.sets)
	})
}

func TestClampLiveLimit(t *testing.T) {
	assert.Equal(t, LiveSearchDefaultLimit, ClampLiveLimit(0))
	assert.Equal(t, LiveSearchDefaultLimit, ClampLiveLimit(-5))
	assert.Equal(t, 7, ClampLiveLimit(7))
	assert.Equal(t, LiveSearchMaxLimit, ClampLiveLimit(500))
}
