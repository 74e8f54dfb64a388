package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/recap"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Rekap"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	titleRows   = 4
	headerRow   = 6
	firstDayCol = 3
	totalCols   = 2 + recap.GridDays + 4
	firstRowOut = headerRow + 2
)

// MonthSheet is everything the monthly recap workbook shows.
type MonthSheet struct {
	School string
	Class  string
	Year   int
	Month  time.Month
	Rows   []recap.GridRow
}

func (s MonthSheet) classLabel() string {
	if s.Class == "" {
		return "Semua"
	}
	return s.Class
}

// FileName suggests a download name such as rekap-kehadiran-2025-02-12-IPA-1.xlsx.
func (s MonthSheet) FileName() string {
	name := fmt.Sprintf("rekap-kehadiran-%d-%02d", s.Year, int(s.Month))
	if s.Class != "" {
		name += "-" + strings.ReplaceAll(s.Class, " ", "_")
	}
	return name + ".xlsx"
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// Build lays out the monthly grid: four merged title rows, an empty row, a
// two-level header and one row per student.
func Build(s MonthSheet) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSheet(f, s); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, s MonthSheet) error {
	lastCol := totalCols

	titles := []string{
		"Rekap Kehadiran",
		"Sekolah: " + s.School,
		"Kelas: " + s.classLabel(),
		fmt.Sprintf("Bulan: %s Tahun: %d", calendar.MonthName(s.Month), s.Year),
	}
	for i, title := range titles {
		row := i + 1
		if err := f.SetCellValue(SheetName, cell(1, row), title); err != nil {
			return err
		}
		if err := f.MergeCell(SheetName, cell(1, row), cell(lastCol, row)); err != nil {
			return err
		}
	}

	top := make([]interface{}, totalCols)
	bottom := make([]interface{}, totalCols)
	top[0], top[1], top[2] = "No.", "Nama", "Tanggal"
	top[firstDayCol-1+recap.GridDays] = "Jumlah"
	for d := 1; d <= recap.GridDays; d++ {
		bottom[firstDayCol-2+d] = d
	}
	for i, label := range []string{"Hadir", "Sakit", "Izin", "Alpa"} {
		bottom[firstDayCol-1+recap.GridDays+i] = label
	}

	if err := f.SetSheetRow(SheetName, cell(1, headerRow), &top); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell(1, headerRow+1), &bottom); err != nil {
		return err
	}

	lastDayCol := firstDayCol + recap.GridDays - 1
	merges := [][2]string{
		{cell(1, headerRow), cell(1, headerRow+1)},
		{cell(2, headerRow), cell(2, headerRow+1)},
		{cell(firstDayCol, headerRow), cell(lastDayCol, headerRow)},
		{cell(lastDayCol+1, headerRow), cell(lastCol, headerRow)},
	}
	for _, m := range merges {
		if err := f.MergeCell(SheetName, m[0], m[1]); err != nil {
			return err
		}
	}

	for i, r := range s.Rows {
		values := make([]interface{}, 0, totalCols)
		values = append(values, r.No, r.Name)
		for _, d := range r.Days {
			values = append(values, string(d))
		}
		values = append(values, r.Hadir, r.Sakit, r.Izin, r.Alpa)

		if err := f.SetSheetRow(SheetName, cell(1, firstRowOut+i), &values); err != nil {
			return err
		}
	}

	return style(f, len(s.Rows))
}

func style(f *excelize.File, rows int) error {
	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	centered, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(SheetName, cell(1, 1), cell(1, titleRows), bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, cell(1, headerRow), cell(totalCols, headerRow+1), bold); err != nil {
		return err
	}
	if rows > 0 {
		last := firstRowOut + rows - 1
		if err := f.SetCellStyle(SheetName, cell(firstDayCol, firstRowOut), cell(totalCols, last), centered); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 5); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return err
	}
	dayFrom, _ := excelize.ColumnNumberToName(firstDayCol)
	dayTo, _ := excelize.ColumnNumberToName(firstDayCol + recap.GridDays - 1)
	return f.SetColWidth(SheetName, dayFrom, dayTo, 4)
}

// Write renders the workbook to w.
func Write(w io.Writer, s MonthSheet) error {
	f, err := Build(s)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}
