package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// BookingMail carries what the renter needs to finish a booking.
type BookingMail struct {
	To          string
	RenterName  string
	BookingCode string
	KosName     string
	CheckIn     string
	Duration    int
	Total       string
	PaymentLink string
}

// SendBookingEmail mails the booking summary. Without SMTP settings it only
// logs the message.
func SendBookingEmail(m BookingMail) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USERNAME")
	smtpPass := os.Getenv("SMTP_PASSWORD")
	fromName := EnvOrDefault("SMTP_FROM_NAME", "TemanKosan")

	if smtpUser == "" || smtpPass == "" || smtpHost == "" || smtpPort == "" {
		log.Printf("[MOCK EMAIL] to:%s booking:%s kos:%s total:%s link:%s",
			m.To, m.BookingCode, m.KosName, m.Total, m.PaymentLink)
		return nil
	}

	safe := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", " ")
	}
	name := safe(m.RenterName)
	code := safe(m.BookingCode)
	kos := safe(m.KosName)
	link := safe(m.PaymentLink)

	from := fmt.Sprintf("%s <%s>", fromName, smtpUser)
	auth := smtp.PlainAuth("", smtpUser, smtpPass, smtpHost)
	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)

	subject := fmt.Sprintf("Pemesanan %s - %s", code, kos)
	boundary := "----=_TEMANKOSAN_BOUNDARY"

	plainBody := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Terima kasih telah memesan di TemanKosan.\n\n"+
			"Kode Booking: %s\n"+
			"Kos: %s\n"+
			"Tanggal Masuk: %s\n"+
			"Durasi: %d bulan\n"+
			"Total: %s\n\n"+
			"Selesaikan pembayaran di: %s\n\n"+
			"Salam,\n%s",
		name, code, kos, m.CheckIn, m.Duration, m.Total, link, fromName,
	)

	htmlBody := fmt.Sprintf(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Pemesanan %s</title></head>
<body style="background:#f5f7fb;font-family:Arial,Helvetica,sans-serif;color:#222;">
<div style="max-width:640px;margin:20px auto;background:#fff;border:1px solid #e6eef6;padding:24px;border-radius:8px;">
  <h2>Pemesanan diterima</h2>
  <p>Halo %s,</p>
  <p>Kode booking Anda: <strong>%s</strong></p>
  <table>
    <tr><td>Kos</td><td>%s</td></tr>
    <tr><td>Tanggal Masuk</td><td>%s</td></tr>
    <tr><td>Durasi</td><td>%d bulan</td></tr>
    <tr><td>Total</td><td><strong>%s</strong></td></tr>
  </table>
  <a href="%s" style="display:inline-block;padding:12px 20px;background:#0f9d58;color:#fff;text-decoration:none;border-radius:6px;margin-top:16px;">Bayar sekarang</a>
</div>
</body>
</html>`,
		code, name, code, kos, m.CheckIn, m.Duration, m.Total, link,
	)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", m.To))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(plainBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	if err := smtp.SendMail(addr, auth, smtpUser, []string{m.To}, []byte(sb.String())); err != nil {
		log.Printf("Failed to send booking email to %s: %v", m.To, err)
		return err
	}

	log.Printf("Booking email sent to %s (%s)", m.To, code)
	return nil
}
