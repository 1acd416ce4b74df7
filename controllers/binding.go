package controllers

import (
	"errors"
	"log"
	"strings"

	"temankosan/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom binding tags used by form structs.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		log.Println("⚠️  gin validator engine is not go-playground/validator; custom tags unavailable")
		return
	}
	_ = v.RegisterValidation("idphone", func(fl validator.FieldLevel) bool {
		return services.ValidPhone(fl.Field().String())
	})
	// same rule the services apply
	_ = v.RegisterValidation("idemail", func(fl validator.FieldLevel) bool {
		return services.ValidEmail(fl.Field().String())
	})
}

var fieldLabels = map[string]string{
	"RenterName":      "Nama penyewa",
	"RenterEmail":     "Email",
	"RenterPhone":     "Nomor telepon",
	"CheckInDate":     "Tanggal masuk",
	"DurationMonths":  "Durasi sewa",
	"PaymentMethod":   "Metode pembayaran",
	"Name":            "Nama",
	"Email":           "Email",
	"Phone":           "Nomor telepon",
	"Password":        "Password",
	"PasswordConfirm": "Konfirmasi password",
	"KosName":         "Nama kos",
	"Rating":          "Rating",
	"Comment":         "Komentar",
	"Price":           "Harga",
	"Type":            "Tipe kos",
	"TotalRooms":      "Jumlah kamar",
	"LocationID":      "Lokasi",
	"Address":         "Alamat",
}

// bindError turns binding failures into a 400 with an Indonesian message.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return services.ErrBadRequest("Data formulir tidak valid.")
	}
	fe := verrs[0]
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return services.ErrBadRequest(label + " wajib diisi.")
	case "email", "idemail":
		return services.ErrBadRequest("Format email tidak valid.")
	case "idphone":
		return services.ErrBadRequest("Nomor telepon tidak valid (contoh: 081234567890).")
	case "min", "max", "gte", "lte":
		return services.ErrBadRequest(label + " di luar batas yang diizinkan.")
	case "oneof":
		return services.ErrBadRequest(label + " harus salah satu dari: " + strings.ReplaceAll(fe.Param(), " ", ", ") + ".")
	}
	return services.ErrBadRequest(label + " tidak valid.")
}
