package utils

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Rupiah formats 1500000 as "Rp 1.500.000".
func Rupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-Rp " + string(out)
	}
	return "Rp " + string(out)
}

// TanggalIndo formats a date as "16 Oktober 2026".
func TanggalIndo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

var statusLabels = map[string]string{
	"pending":   "Menunggu",
	"confirmed": "Dikonfirmasi",
	"cancelled": "Dibatalkan",
	"completed": "Selesai",
	"paid":      "Lunas",
	"failed":    "Gagal",
	"refunded":  "Dikembalikan",
	"published": "Tayang",
	"draft":     "Draf",
	"inactive":  "Nonaktif",
}

func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

func StatusClass(s string) string {
	switch s {
	case "confirmed", "paid", "published", "completed":
		return "success"
	case "pending", "draft":
		return "warning"
	case "cancelled", "failed", "inactive":
		return "danger"
	default:
		return "secondary"
	}
}

func KosTypeLabel(t string) string {
	switch t {
	case "putra":
		return "Putra"
	case "putri":
		return "Putri"
	case "campur":
		return "Campur"
	}
	return t
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// TemplateFuncs is installed on the HTML renderer.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"rupiah":      Rupiah,
		"tanggal":     TanggalIndo,
		"statusLabel": StatusLabel,
		"statusClass": StatusClass,
		"kosType":     KosTypeLabel,
		"truncate":    Truncate,
		"markdown":    Markdown,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"stars": func(r float64) string {
			n := int(r + 0.5)
			if n > 5 {
				n = 5
			}
			return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
		},
		"year": func() int { return time.Now().Year() },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
		"hasID": func(ids []uint, id uint) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
		"isoDate":  func(t time.Time) string { return t.Format("2006-01-02") },
		"withPage": WithPage,
		"float":    func(n int) float64 { return float64(n) },
		"list":     func(items ...string) []string { return items },
	}
}

// WithPage returns the request URI with its page parameter replaced, so
// pagination links keep the active filters.
func WithPage(u *url.URL, page int) string {
	if u == nil {
		return "?page=" + strconv.Itoa(page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}
