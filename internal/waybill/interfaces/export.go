package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	waybill "fleet-waybill/internal/waybill/domain"
)

// BuildWaybillPDF renders the printable trip form for a waybill.
func BuildWaybillPDF(wb *waybill.Waybill) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Waybill %s", wb.Number))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Trip date: %s", wb.TripDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Vehicle: %s", wb.VehicleID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Driver: %s", wb.DriverID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", wb.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Method: %s", wb.CalcMethod))
	pdf.Ln(5)
	if wb.OdometerStart != nil && wb.OdometerEnd != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Odometer: %.1f - %.1f", *wb.OdometerStart, *wb.OdometerEnd))
		pdf.Ln(5)
	}
	if !wb.PostedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Posted: %s", wb.PostedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Route table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(75, 6, "Route", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Km", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Conditions", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, seg := range wb.Segments {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", seg.Position), "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 6, seg.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", seg.DistanceKm), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, segmentConditions(seg), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Stock item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Received", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Consumed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Planned", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range wb.FuelLines {
		pdf.CellFormat(45, 6, line.StockItemID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(27, 6, formatLiters(line.FuelStart), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, formatLiters(line.FuelReceived), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, formatLiters(line.FuelConsumed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, formatLiters(line.FuelEnd), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, formatLiters(line.FuelPlanned), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildWaybillXLSX renders the trip sheet workbook for a waybill.
func BuildWaybillXLSX(wb *waybill.Waybill) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	routeSheet := "route"
	fuelSheet := "fuel"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(routeSheet)
	f.NewSheet(fuelSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Waybill")
	_ = f.SetCellValue(summarySheet, "B1", wb.Number)
	_ = f.SetCellValue(summarySheet, "A3", "Trip date")
	_ = f.SetCellValue(summarySheet, "B3", wb.TripDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A4", "Vehicle")
	_ = f.SetCellValue(summarySheet, "B4", wb.VehicleID)
	_ = f.SetCellValue(summarySheet, "A5", "Driver")
	_ = f.SetCellValue(summarySheet, "B5", wb.DriverID)
	_ = f.SetCellValue(summarySheet, "A6", "Status")
	_ = f.SetCellValue(summarySheet, "B6", string(wb.Status))
	_ = f.SetCellValue(summarySheet, "A7", "Method")
	_ = f.SetCellValue(summarySheet, "B7", string(wb.CalcMethod))
	if wb.OdometerStart != nil {
		_ = f.SetCellValue(summarySheet, "B8", *wb.OdometerStart)
	}
	_ = f.SetCellValue(summarySheet, "A8", "Odometer start")
	if wb.OdometerEnd != nil {
		_ = f.SetCellValue(summarySheet, "B9", *wb.OdometerEnd)
	}
	_ = f.SetCellValue(summarySheet, "A9", "Odometer end")

	_ = f.SetCellValue(routeSheet, "A1", "#")
	_ = f.SetCellValue(routeSheet, "B1", "Route")
	_ = f.SetCellValue(routeSheet, "C1", "Km")
	_ = f.SetCellValue(routeSheet, "D1", "City")
	_ = f.SetCellValue(routeSheet, "E1", "Warming")
	_ = f.SetCellValue(routeSheet, "F1", "Mountain")
	for i, seg := range wb.Segments {
		row := i + 2
		_ = f.SetCellValue(routeSheet, fmt.Sprintf("A%d", row), seg.Position)
		_ = f.SetCellValue(routeSheet, fmt.Sprintf("B%d", row), seg.Description)
		_ = f.SetCellValue(routeSheet, fmt.Sprintf("C%d", row), seg.DistanceKm)
		_ = f.SetCellValue(routeSheet, fmt.Sprintf("D%d", row), seg.CityDriving)
		_ = f.SetCellValue(routeSheet, fmt.Sprintf("E%d", row), seg.Warming)
		_ = f.SetCellValue(routeSheet, fmt.Sprintf("F%d", row), seg.MountainDriving)
	}

	_ = f.SetCellValue(fuelSheet, "A1", "Stock item")
	_ = f.SetCellValue(fuelSheet, "B1", "Start")
	_ = f.SetCellValue(fuelSheet, "C1", "Received")
	_ = f.SetCellValue(fuelSheet, "D1", "Consumed")
	_ = f.SetCellValue(fuelSheet, "E1", "End")
	_ = f.SetCellValue(fuelSheet, "F1", "Planned")
	for i, line := range wb.FuelLines {
		row := i + 2
		_ = f.SetCellValue(fuelSheet, fmt.Sprintf("A%d", row), line.StockItemID)
		setFloatCell(f, fuelSheet, fmt.Sprintf("B%d", row), line.FuelStart)
		setFloatCell(f, fuelSheet, fmt.Sprintf("C%d", row), line.FuelReceived)
		setFloatCell(f, fuelSheet, fmt.Sprintf("D%d", row), line.FuelConsumed)
		setFloatCell(f, fuelSheet, fmt.Sprintf("E%d", row), line.FuelEnd)
		setFloatCell(f, fuelSheet, fmt.Sprintf("F%d", row), line.FuelPlanned)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func segmentConditions(seg waybill.RouteSegment) string {
	conditions := ""
	if seg.CityDriving {
		conditions += "city "
	}
	if seg.Warming {
		conditions += "warming "
	}
	if seg.MountainDriving {
		conditions += "mountain"
	}
	return conditions
}

func formatLiters(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func setFloatCell(f *excelize.File, sheet, cell string, v *float64) {
	if v == nil {
		return
	}
	_ = f.SetCellValue(sheet, cell, *v)
}
