package reports

import (
	"fmt"
	"path/filepath"
)

// OutputAreas maps report kinds onto file locations.
type OutputAreas struct {
	Title      string
	ShiftDir   string
	DailyDir   string
	MonthlyDir string
	Extension  string
}

// ShiftReport is <shift-dir>/<title>_<date>_<shift>.<ext>.
func (o OutputAreas) ShiftReport(date string, shift int) string {
	return filepath.Join(o.ShiftDir, fmt.Sprintf("%s_%s_%d.%s", o.Title, date, shift, o.ext()))
}

// DailyReport is <daily-dir>/<date>_daily_max_report.<ext>.
func (o OutputAreas) DailyReport(date string) string {
	return filepath.Join(o.DailyDir, fmt.Sprintf("%s_daily_max_report.%s", date, o.ext()))
}

// MonthlyReport is <monthly-dir>/monthly_report_<month>_<year>.<ext>, month without padding.
func (o OutputAreas) MonthlyReport(month, year int) string {
	return filepath.Join(o.MonthlyDir, fmt.Sprintf("monthly_report_%d_%d.%s", month, year, o.ext()))
}

func (o OutputAreas) ext() string {
	if o.Extension == "" {
		return "pdf"
	}
	return o.Extension
}
