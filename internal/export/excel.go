// Package export renders archived invoice records as an XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/OsaidB/Invoices-Convertor/pkg/archive"
)

// Service reads the on-disk archive and produces XLSX bytes for reports.
type Service struct {
	archive *archive.Archive
	logger  *slog.Logger
}

func NewService(ar *archive.Archive, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{archive: ar, logger: logger}
}

// ExportXLSX returns a workbook with one summary row per archived invoice,
// covering both partitions. Records that fail to load are skipped with a
// warning rather than aborting the export.
func (s *Service) ExportXLSX() ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Worksite", "Total", "Net Total", "Items", "Totals Match", "Record"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	count := 0
	for _, p := range []archive.Partition{archive.PartitionMatched, archive.PartitionMismatched} {
		paths, err := s.archive.ListRecords(p)
		if err != nil {
			return nil, fmt.Errorf("listing %s records: %w", p, err)
		}
		for _, path := range paths {
			inv, err := s.archive.LoadRecord(path)
			if err != nil {
				s.logger.Warn("skipping unreadable record", slog.String("path", path), slog.Any("error", err))
				continue
			}

			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}

			if inv.Date != nil {
				write(1, time.Time(*inv.Date).Format("2006-01-02 15:04:05"))
			} else {
				write(1, "")
			}
			write(2, inv.WorksiteName)
			if inv.Total != nil {
				write(3, inv.Total.String())
			}
			if inv.NetTotal != nil {
				write(4, inv.NetTotal.String())
			}
			write(5, len(inv.Items))
			write(6, inv.TotalMatch)
			write(7, path)

			row++
			count++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "C", "D", 14)
	_ = f.SetColWidth(sheet, "G", "G", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		slog.Int("rows", count),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}
