package stats

import (
	"context"
	"fmt"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/xuri/excelize/v2"
)

const (
	vehiclesSheet = "vehicles"
	tripsSheet    = "trips"
)

var (
	vehiclesHeader = []interface{}{"Branch", "Plate", "Model", "Trips", "Distance (km)", "Toll (KRW)", "Last record", "Days since"}
	tripsHeader    = []interface{}{"Date", "Branch", "Plate", "Model", "Driver", "Odo start", "Odo end", "Distance (km)", "EV %", "Toll card balance", "Toll (KRW)", "Note"}
)

// MonthlyReport строит XLSX-отчет за месяц вида 2026-10: лист vehicles со сводкой
// по автомобилям и лист trips со всеми поездками месяца в порядке цепочки.
func (s *Service) MonthlyReport(ctx context.Context, branchCode, month string) ([]byte, error) {
	period, err := domain.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	vehicles, err := s.vehiclesOf(ctx, branchCode)
	if err != nil {
		return nil, err
	}

	summaries, err := s.summarize(ctx, branchCode, period, vehicles, s.now().UTC())
	if err != nil {
		return nil, err
	}

	trips, err := s.tripViews.ListViews(ctx, repository.TripFilter{
		BranchCode: branchCode,
		From:       &period.From,
		To:         &period.To,
		Ascending:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", vehiclesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(tripsSheet); err != nil {
		return nil, err
	}

	if err := writeRow(f, vehiclesSheet, 1, vehiclesHeader); err != nil {
		return nil, err
	}
	for i, summary := range summaries {
		v := summary.Vehicle
		row := []interface{}{v.BranchName, v.Plate, v.Model, summary.Totals.Count, summary.Totals.Distance, summary.Totals.TollCost, "", ""}
		if summary.Latest != nil {
			row[6] = summary.Latest.Date.Format(domain.DateLayout)
			row[7] = *summary.StaleDays
		}
		if err := writeRow(f, vehiclesSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, tripsSheet, 1, tripsHeader); err != nil {
		return nil, err
	}
	for i, t := range trips {
		var odoStart, note interface{} = "", ""
		if t.OdoStart != nil {
			odoStart = *t.OdoStart
		}
		if t.Note != nil {
			note = *t.Note
		}
		row := []interface{}{
			t.Date.Format(domain.DateLayout), t.BranchName, t.Plate, t.Model, t.DriverName,
			odoStart, t.OdoEnd, t.Distance, t.EVRemainPct, t.HipassBalance, t.TollCost, note,
		}
		if err := writeRow(f, tripsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(vehiclesSheet, "A", "H", 16)
	_ = f.SetColWidth(tripsSheet, "A", "K", 14)
	_ = f.SetColWidth(tripsSheet, "L", "L", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Info("Monthly report generated", map[string]interface{}{
		"branch_code": branchCode,
		"month":       month,
		"vehicles":    len(summaries),
		"trips":       len(trips),
	})

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
