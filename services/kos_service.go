package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"temankosan/models"
	"temankosan/storage"
	"temankosan/utils"

	"gorm.io/gorm"
)

const MaxKosImages = 5

type KosService struct {
	DB    *gorm.DB
	Store storage.ImageStore
}

func NewKosService(db *gorm.DB, store storage.ImageStore) *KosService {
	return &KosService{DB: db, Store: store}
}

func (s *KosService) published() *gorm.DB {
	return s.DB.Model(&models.Kos{}).Where("kos.status = ?", models.KosStatusPublished)
}

func withCardImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Location").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("is_primary DESC, sort_order ASC") })
}

// Featured returns up to limit published kos flagged as featured.
func (s *KosService) Featured(limit int) ([]models.Kos, error) {
	var list []models.Kos
	err := withCardImages(s.published()).
		Where("is_featured = ?", true).
		Order("rating DESC").Order("id DESC").
		Limit(limit).Find(&list).Error
	return list, err
}

func (s *KosService) Newest(limit int) ([]models.Kos, error) {
	var list []models.Kos
	err := withCardImages(s.published()).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&list).Error
	return list, err
}

// GetPublishedBySlug loads a public kos with everything the detail page
// shows and bumps its view counter.
func (s *KosService) GetPublishedBySlug(slug string) (*models.Kos, error) {
	var k models.Kos
	err := withCardImages(s.published()).
		Preload("Facilities", "is_available = ?", true).
		Preload("Facilities.Facility").
		Where("slug = ?", strings.TrimSpace(slug)).
		First(&k).Error
	if err != nil {
		return nil, notFoundOr(err, "Kos tidak ditemukan.", "find kos")
	}

	if err := s.DB.Model(&models.Kos{}).Where("id = ?", k.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		log.Printf("warning: view_count kos#%d: %v", k.ID, err)
	} else {
		k.ViewCount++
	}
	return &k, nil
}

// FindPublished loads a public kos by slug without counting a view.
func (s *KosService) FindPublished(slug string) (*models.Kos, error) {
	var k models.Kos
	err := withCardImages(s.published()).
		Where("slug = ?", strings.TrimSpace(slug)).
		First(&k).Error
	if err != nil {
		return nil, notFoundOr(err, "Kos tidak ditemukan.", "find kos")
	}
	return &k, nil
}

// Similar picks other published kos in the same city.
func (s *KosService) Similar(k *models.Kos, limit int) ([]models.Kos, error) {
	var list []models.Kos
	err := withCardImages(s.published()).
		Joins("JOIN locations ON locations.id = kos.location_id").
		Where("kos.id <> ? AND locations.city = ?", k.ID, k.Location.City).
		Order("kos.rating DESC").Order("kos.id DESC").
		Limit(limit).Find(&list).Error
	return list, err
}

func (s *KosService) Locations() ([]models.Location, error) {
	var list []models.Location
	err := s.DB.Order("province ASC, city ASC, district ASC").Find(&list).Error
	return list, err
}

// Cities lists distinct city names that have at least one location row.
func (s *KosService) Cities() ([]string, error) {
	var cities []string
	err := s.DB.Model(&models.Location{}).Distinct("city").Order("city ASC").Pluck("city", &cities).Error
	return cities, err
}

// ---------------------------
// Admin
// ---------------------------

type KosFilter struct {
	Status  string
	Type    string
	Keyword string
	Page    int
	PerPage int
}

func (s *KosService) filtered(f KosFilter) *gorm.DB {
	q := s.DB.Model(&models.Kos{})
	if st := strings.TrimSpace(f.Status); st != "" {
		q = q.Where("status = ?", st)
	}
	if t := strings.TrimSpace(f.Type); t != "" {
		q = q.Where("type = ?", t)
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(address) LIKE ?)", like, like)
	}
	return q
}

func (s *KosService) List(f KosFilter) ([]models.Kos, utils.Pagination, error) {
	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("count kos: %w", err)
	}
	p := utils.NewPagination(f.Page, f.PerPage, total)

	var list []models.Kos
	if err := withCardImages(s.filtered(f)).
		Order("created_at DESC").Order("id DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&list).Error; err != nil {
		return nil, p, fmt.Errorf("list kos: %w", err)
	}
	return list, p, nil
}

func (s *KosService) Get(id uint) (*models.Kos, error) {
	var k models.Kos
	if err := withCardImages(s.DB).Preload("Facilities.Facility").First(&k, id).Error; err != nil {
		return nil, notFoundOr(err, "Kos tidak ditemukan.", "find kos")
	}
	return &k, nil
}

type CreateKosInput struct {
	Name        string
	LocationID  uint
	Address     string
	Description string
	Price       int64
	Type        string
	RoomSize    string
	TotalRooms  int
	Status      string
	IsFeatured  bool
	FacilityIDs []uint
}

func (in *CreateKosInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Description = strings.TrimSpace(in.Description)
	in.RoomSize = strings.TrimSpace(in.RoomSize)
	in.Type = strings.TrimSpace(in.Type)
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = models.KosStatusDraft
	}

	switch {
	case in.Name == "":
		return ErrBadRequest("Nama kos wajib diisi.")
	case in.LocationID == 0:
		return ErrBadRequest("Lokasi wajib dipilih.")
	case in.Address == "":
		return ErrBadRequest("Alamat wajib diisi.")
	case in.Price <= 0:
		return ErrBadRequest("Harga per bulan harus lebih dari 0.")
	case !models.ValidKosType(in.Type):
		return ErrBadRequest("Tipe kos harus putra, putri, atau campur.")
	case in.TotalRooms <= 0:
		return ErrBadRequest("Jumlah kamar harus lebih dari 0.")
	case !models.ValidKosStatus(in.Status):
		return ErrBadRequest("Status kos tidak valid.")
	}
	return nil
}

// Create stores the uploaded images, then writes kos, images and facility
// links in one transaction. Stored files are removed again if the
// transaction fails.
func (s *KosService) Create(ctx context.Context, in CreateKosInput, files []*multipart.FileHeader, actor Actor) (*models.Kos, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(files) > MaxKosImages {
		return nil, ErrBadRequest(fmt.Sprintf("Maksimal %d gambar per kos.", MaxKosImages))
	}

	var loc models.Location
	if err := s.DB.First(&loc, in.LocationID).Error; err != nil {
		return nil, notFoundOr(err, "Lokasi tidak ditemukan.", "find location")
	}

	slug, err := s.uniqueSlug(in.Name)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, fh := range files {
		if s.Store == nil {
			break
		}
		url, err := s.Store.Save(ctx, fh, "kos")
		if err != nil {
			s.discard(ctx, urls)
			return nil, ErrBadRequest("Gagal mengunggah gambar: " + err.Error())
		}
		urls = append(urls, url)
	}

	kos := models.Kos{
		LocationID:     in.LocationID,
		Name:           in.Name,
		Slug:           slug,
		Address:        in.Address,
		Description:    in.Description,
		Price:          in.Price,
		Type:           in.Type,
		RoomSize:       in.RoomSize,
		TotalRooms:     in.TotalRooms,
		AvailableRooms: in.TotalRooms,
		Status:         in.Status,
		IsAvailable:    true,
		IsFeatured:     in.IsFeatured,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&kos).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrConflict("Slug kos sudah dipakai, ubah nama kos.")
			}
			return fmt.Errorf("create kos: %w", err)
		}

		for i, url := range urls {
			img := models.KosImage{
				KosID:     kos.ID,
				ImageURL:  url,
				AltText:   kos.Name,
				IsPrimary: i == 0,
				SortOrder: i,
			}
			if err := tx.Create(&img).Error; err != nil {
				return fmt.Errorf("create kos image: %w", err)
			}
		}

		if err := setFacilities(tx, kos.ID, in.FacilityIDs); err != nil {
			return err
		}

		return logActivity(tx, actor, "create_kos", "kos", kos.ID, map[string]interface{}{
			"name":   kos.Name,
			"images": len(urls),
		})
	})
	if err != nil {
		s.discard(ctx, urls)
		return nil, err
	}

	return s.Get(kos.ID)
}

// setFacilities writes one kos_facilities row per distinct active facility.
func setFacilities(tx *gorm.DB, kosID uint, facilityIDs []uint) error {
	seen := make(map[uint]bool, len(facilityIDs))
	ids := make([]uint, 0, len(facilityIDs))
	for _, id := range facilityIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	var valid []uint
	if err := tx.Model(&models.Facility{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Pluck("id", &valid).Error; err != nil {
		return fmt.Errorf("check facilities: %w", err)
	}

	for _, fid := range valid {
		var n int64
		if err := tx.Model(&models.KosFacility{}).
			Where("kos_id = ? AND facility_id = ?", kosID, fid).
			Count(&n).Error; err != nil {
			return fmt.Errorf("check kos facility: %w", err)
		}
		if n > 0 {
			continue
		}
		if err := tx.Create(&models.KosFacility{KosID: kosID, FacilityID: fid, IsAvailable: true}).Error; err != nil {
			return fmt.Errorf("create kos facility: %w", err)
		}
	}
	return nil
}

func (s *KosService) uniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "kos"
	}
	slug := base
	for i := 0; i < 5; i++ {
		var n int64
		if err := s.DB.Model(&models.Kos{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if n == 0 {
			return slug, nil
		}
		suffix, err := utils.GenerateCode(4)
		if err != nil {
			return "", err
		}
		slug = base + "-" + strings.ToLower(suffix)
	}
	return "", ErrConflict("Gagal membuat slug unik untuk kos ini.")
}

func (s *KosService) discard(ctx context.Context, urls []string) {
	if s.Store == nil {
		return
	}
	for _, u := range urls {
		if err := s.Store.Delete(ctx, u); err != nil {
			log.Printf("warning: remove image %s: %v", u, err)
		}
	}
}

func (s *KosService) UpdateStatus(id uint, status string, actor Actor) error {
	status = strings.TrimSpace(status)
	if !models.ValidKosStatus(status) {
		return ErrBadRequest("Status kos tidak valid.")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var k models.Kos
		if err := tx.First(&k, id).Error; err != nil {
			return notFoundOr(err, "Kos tidak ditemukan.", "find kos")
		}
		from := k.Status
		if err := tx.Model(&k).Update("status", status).Error; err != nil {
			return fmt.Errorf("update kos status: %w", err)
		}
		return logActivity(tx, actor, "update_kos_status", "kos", k.ID, map[string]string{
			"from": from,
			"to":   status,
		})
	})
}

// ToggleFeatured flips is_featured and returns the new value.
func (s *KosService) ToggleFeatured(id uint, actor Actor) (bool, error) {
	var featured bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var k models.Kos
		if err := tx.First(&k, id).Error; err != nil {
			return notFoundOr(err, "Kos tidak ditemukan.", "find kos")
		}
		featured = !k.IsFeatured
		if err := tx.Model(&k).Update("is_featured", featured).Error; err != nil {
			return fmt.Errorf("toggle featured: %w", err)
		}
		return logActivity(tx, actor, "toggle_featured", "kos", k.ID, map[string]bool{"is_featured": featured})
	})
	return featured, err
}

// Delete removes a kos with its images, facility links and reviews. Kos with
// pending or confirmed bookings cannot be deleted.
func (s *KosService) Delete(ctx context.Context, id uint, actor Actor) error {
	var urls []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var k models.Kos
		if err := tx.Preload("Images").First(&k, id).Error; err != nil {
			return notFoundOr(err, "Kos tidak ditemukan.", "find kos")
		}

		active, err := CountActiveForKos(tx, k.ID)
		if err != nil {
			return fmt.Errorf("count active bookings: %w", err)
		}
		if active > 0 {
			return ErrConflict(fmt.Sprintf("Kos masih memiliki %d booking aktif dan tidak dapat dihapus.", active))
		}

		for _, img := range k.Images {
			urls = append(urls, img.ImageURL)
		}

		if err := tx.Where("kos_id = ?", k.ID).Delete(&models.KosImage{}).Error; err != nil {
			return fmt.Errorf("delete kos images: %w", err)
		}
		if err := tx.Where("kos_id = ?", k.ID).Delete(&models.KosFacility{}).Error; err != nil {
			return fmt.Errorf("delete kos facilities: %w", err)
		}
		if err := tx.Where("kos_id = ?", k.ID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Delete(&k).Error; err != nil {
			return fmt.Errorf("delete kos: %w", err)
		}
		return logActivity(tx, actor, "delete_kos", "kos", k.ID, map[string]string{"name": k.Name})
	})
	if err != nil {
		return err
	}
	s.discard(ctx, urls)
	return nil
}
