package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"homebooking/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Bookings"

var headers = []string{
	"Booking ID", "Customer", "Email", "Phone", "Service", "Category",
	"Date", "Time Slot", "Status", "Amount", "Created At",
}

var statusFill = map[models.BookingStatus]string{
	models.StatusPending:    "#FFF2CC",
	models.StatusConfirmed:  "#DDEBF7",
	models.StatusInProgress: "#E4DFEC",
	models.StatusCompleted:  "#E2EFDA",
	models.StatusCancelled:  "#F8CBAD",
}

// BookingsWorkbook builds the admin bookings report: one row per booking
// and a totals row. Caller closes the file.
func BookingsWorkbook(bookings []models.Booking, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Bookings report, generated %s", generatedAt.Format("2006-01-02 15:04")))
	_ = f.MergeCell(SheetName, "A1", lastColumn()+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	_ = f.SetCellStyle(SheetName, "A2", lastColumn()+"2", headerStyle)

	styles := make(map[models.BookingStatus]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		styles[status] = id
	}

	row := 3
	var total, revenue float64
	for i := range bookings {
		b := &bookings[i]
		var title, category string
		if b.Service != nil {
			title, category = b.Service.Title, b.Service.Category.Name
		}
		values := []interface{}{
			b.ID, b.CustomerName, b.CustomerEmail, b.CustomerPhone, title, category,
			b.Date, b.TimeSlot, b.Status.Label(), b.TotalAmount, b.CreatedAt.Format("2006-01-02 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			_ = f.Close()
			return nil, err
		}
		statusCell, _ := excelize.CoordinatesToCellName(9, row)
		if style, ok := styles[b.Status]; ok {
			_ = f.SetCellStyle(SheetName, statusCell, statusCell, style)
		}

		total += b.TotalAmount
		if b.Status == models.StatusCompleted {
			revenue += b.TotalAmount
		}
		row++
	}

	totalsStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	totals := []interface{}{"Total", fmt.Sprintf("%d bookings", len(bookings)), "", "", "", "", "", "", "Revenue (completed)", revenue}
	start, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(SheetName, start, &totals)
	end, _ := excelize.CoordinatesToCellName(len(headers), row)
	_ = f.SetCellStyle(SheetName, start, end, totalsStyle)

	// Booked value regardless of status, one row below.
	booked := []interface{}{"Booked value", "", "", "", "", "", "", "", "", total}
	start, _ = excelize.CoordinatesToCellName(1, row+1)
	_ = f.SetSheetRow(SheetName, start, &booked)

	_ = f.SetColWidth(SheetName, "A", "A", 44)
	_ = f.SetColWidth(SheetName, "B", lastColumn(), 20)

	return f, nil
}

// WriteBookings streams the report as xlsx.
func WriteBookings(w io.Writer, bookings []models.Booking, generatedAt time.Time) error {
	f, err := BookingsWorkbook(bookings, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveBookings writes the report into dir and returns its path.
func SaveBookings(dir string, bookings []models.Booking, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := BookingsWorkbook(bookings, generatedAt)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, fmt.Sprintf("bookings_%s.xlsx", generatedAt.Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return path, nil
}

func lastColumn() string {
	col, _ := excelize.ColumnNumberToName(len(headers))
	return col
}
