package services

import (
	"fmt"
	"io"

	"temankosan/models"
	"temankosan/utils"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Booking"

var exportHeader = []interface{}{
	"Kode Booking", "Tanggal Pesan", "Penyewa", "Email", "Telepon",
	"Kos", "Kota", "Check-in", "Durasi (bulan)", "Harga/Bulan",
	"Biaya Admin", "Total", "Metode", "Status Booking", "Status Bayar",
}

// ExportXLSX writes every booking matching f to w as an .xlsx workbook.
func (s *BookingService) ExportXLSX(f BookingFilter, w io.Writer) (int, error) {
	list, err := s.ListAll(f)
	if err != nil {
		return 0, err
	}
	if err := writeBookingsXLSX(w, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

func writeBookingsXLSX(w io.Writer, list []models.Booking) error {
	xf := excelize.NewFile()
	defer xf.Close()

	if err := xf.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := xf.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := xf.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(exportHeader))
		_ = xf.SetCellStyle(exportSheet, "A1", lastCol+"1", bold)
	}

	for i, b := range list {
		row := []interface{}{
			b.BookingCode,
			b.CreatedAt.Format("2006-01-02 15:04"),
			b.RenterName,
			b.RenterEmail,
			b.RenterPhone,
			b.Kos.Name,
			b.Kos.Location.City,
			b.CheckInDate.Format("2006-01-02"),
			b.DurationMonths,
			b.MonthlyPrice,
			b.AdminFee,
			b.TotalPrice,
			b.PaymentMethod,
			utils.StatusLabel(b.BookingStatus),
			utils.StatusLabel(b.PaymentStatus),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xf.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := xf.SetColWidth(exportSheet, "A", "O", 16); err != nil {
		return fmt.Errorf("col width: %w", err)
	}
	if err := xf.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
