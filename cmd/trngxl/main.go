// trngxl turns a .bin or .csv capture produced by collect into an .xlsx
// report with a cumulative z-score chart, written next to the input file.
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/Thiagojm/neorv32_trng_go/bitstat"
	"github.com/Thiagojm/neorv32_trng_go/naming"
)

const (
	sheetName       = "Zscore"
	onesColumnName  = "ones"
	blockColumnName = "samples"
	timeColumnName  = "time"
)

// readBinFile reads a raw capture and returns one row per block of
// blockBits bits, labeled by block number.
func readBinFile(filePath string, blockBits int) ([]bitstat.Row, error) {
	if blockBits%8 != 0 {
		return nil, errors.New("block size must be a multiple of 8 bits for .bin files")
	}
	bytesPerBlock := blockBits / 8
	if bytesPerBlock <= 0 {
		return nil, errors.New("invalid block size")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	rows := make([]bitstat.Row, 0, 1024)
	buf := make([]byte, bytesPerBlock)
	block := 1
	for {
		n, err := io.ReadFull(reader, buf)
		if n == 0 {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		count := 0
		for i := 0; i < n; i++ {
			count += bits.OnesCount8(buf[i])
		}
		rows = append(rows, bitstat.Row{Label: strconv.Itoa(block), Ones: count})
		block++
		if n < bytesPerBlock {
			break
		}
	}
	return rows, nil
}

// readCSVFile reads a capture's csv companion: timestamp, ones count per
// line. Rows are labeled with the timestamp reduced to HH:MM:SS.
func readCSVFile(filePath string) ([]bitstat.Row, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]bitstat.Row, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		label := formatTimeLabel(strings.TrimSpace(rec[0]))
		onesStr := strings.TrimSpace(rec[1])
		ones, err := strconv.Atoi(onesStr)
		if err != nil {
			return nil, fmt.Errorf("invalid ones value '%s': %w", onesStr, err)
		}
		rows = append(rows, bitstat.Row{Label: label, Ones: ones})
	}
	return rows, nil
}

// formatTimeLabel reduces the collect timestamp (or a handful of close
// formats) to HH:MM:SS; unparseable labels pass through unchanged.
func formatTimeLabel(s string) string {
	formats := []string{
		"20060102T15:04:05",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"15:04:05",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}

// writeToExcel writes the rows and a z-score line chart to an .xlsx next
// to the input path.
func writeToExcel(rows []bitstat.Row, filePath string, blockBits int, intervalSec int, firstColumnHeader string) error {
	if len(rows) == 0 {
		return errors.New("no data to write")
	}
	outPath := naming.SiblingWithExt(filePath, "xlsx")
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheetName {
		f.NewSheet(sheetName)
		f.DeleteSheet(defaultSheet)
	}

	_ = f.SetCellStr(sheetName, "A1", firstColumnHeader)
	_ = f.SetCellStr(sheetName, "B1", onesColumnName)
	_ = f.SetCellStr(sheetName, "C1", "cumulative_mean")
	_ = f.SetCellStr(sheetName, "D1", "z_test")

	for i, r := range rows {
		rowIdx := i + 2
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowIdx), r.Label)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", rowIdx), r.Ones)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("C%d", rowIdx), r.CumulativeMean, 6, 64)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("D%d", rowIdx), r.ZScore, 6, 64)
	}

	endRow := len(rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$D$1", sheetName),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, endRow),
				Values:     fmt.Sprintf("%s!$D$2:$D$%d", sheetName, endRow),
			},
		},
		Title:  []excelize.RichTextRun{{Text: filepath.Base(filePath)}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Number of Samples - one sample every %d second(s)", intervalSec)}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - Sample Size = %d bits", blockBits)}}, MajorGridLines: true},
	}
	if err := f.AddChart(sheetName, "F2", chart); err != nil {
		return err
	}

	return f.SaveAs(outPath)
}

// run parses the capture name, reads the data, computes the statistics and
// writes the report.
func run(filePath string) error {
	interval, err := naming.ParseInterval(filePath)
	if err != nil {
		return err
	}
	blockBits, err := naming.ParseBits(filePath)
	if err != nil {
		return err
	}

	var rows []bitstat.Row
	firstHeader := blockColumnName
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".bin":
		rows, err = readBinFile(filePath, blockBits)
	case ".csv":
		rows, err = readCSVFile(filePath)
		firstHeader = timeColumnName
	default:
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
	}
	if err != nil {
		return err
	}

	rows = bitstat.ZTest(rows, blockBits)
	return writeToExcel(rows, filePath, blockBits, interval, firstHeader)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: trngxl <path-to-.bin-or-.csv>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		logrus.WithError(err).Fatal("report failed")
	}
}
