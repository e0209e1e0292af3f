package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/internal/repository"
)

// 导出格式
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

// ── 导出模块业务错误 ──

var (
	ErrExportUnsupportedFormat = errors.New("format must be csv, pdf or xlsx")
	ErrExportGenerateFail      = errors.New("生成导出文件失败")
)

var exportHeader = []string{"id", "user_id", "username", "lat", "lng", "code_used", "inside", "created_at"}

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出全部签到记录，按创建时间倒序
//   - CSV 字段顺序固定，兼容旧版导出文件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAttendances 按格式导出签到记录，返回文件内容与建议文件名
	ExportAttendances(ctx context.Context, format string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportAttendances(ctx context.Context, format string) (*bytes.Buffer, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}

	var write func([]model.Attendance) (*bytes.Buffer, error)
	switch format {
	case ExportFormatCSV:
		write = writeCSV
	case ExportFormatPDF:
		write = writePDF
	case ExportFormatXLSX:
		write = writeXLSX
	default:
		return nil, "", ErrExportUnsupportedFormat
	}

	records, err := s.repo.Attendance.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询签到记录失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := write(records)
	if err != nil {
		s.logger.Error("生成导出文件失败", zap.String("format", format), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("签到记录已导出", zap.String("format", format), zap.Int("rows", len(records)))
	return buf, "attendances." + format, nil
}

// ═══════════════════════════════════════════════════════════
// CSV: RFC 4180，首行为表头
// ═══════════════════════════════════════════════════════════

func writeCSV(records []model.Attendance) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range records {
		if err := w.Write(exportRow(&records[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf, w.Error()
}

// ═══════════════════════════════════════════════════════════
// PDF: 标题 + 每条记录一行
// ═══════════════════════════════════════════════════════════

func writePDF(records []model.Attendance) (*bytes.Buffer, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Daftar Absensi", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// 内置字体为 cp1252 编码
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 9)
	for i := range records {
		a := &records[i]
		who := a.Username()
		if who == "" {
			who = a.UserID
		}
		code := ""
		if a.CodeUsed != nil {
			code = *a.CodeUsed
		}
		inside := "TIDAK"
		if a.Inside {
			inside = "YA"
		}
		line := fmt.Sprintf("%s | %s | lat:%s,lng:%s | code:%s | inside:%s",
			a.CreatedAt.Format(time.RFC3339), who, formatFloat(a.Lat), formatFloat(a.Lng), code, inside)
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ═══════════════════════════════════════════════════════════
// XLSX: 单 Sheet，与 CSV 同列
// ═══════════════════════════════════════════════════════════

func writeXLSX(records []model.Attendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Absensi"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "C", 38)
	f.SetColWidth(sheetName, "D", "G", 12)
	f.SetColWidth(sheetName, "H", "H", 26)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range exportHeader {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeader)-1), 1), headerStyle)

	row := 2
	for i := range records {
		a := &records[i]
		values := []interface{}{
			a.AttendanceID,
			a.UserID,
			a.Username(),
			a.Lat,
			a.Lng,
			derefString(a.CodeUsed),
			a.Inside,
			a.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 辅助函数 ──

func exportRow(a *model.Attendance) []string {
	inside := "0"
	if a.Inside {
		inside = "1"
	}
	return []string{
		a.AttendanceID,
		a.UserID,
		a.Username(),
		formatFloat(a.Lat),
		formatFloat(a.Lng),
		derefString(a.CodeUsed),
		inside,
		a.CreatedAt.Format(time.RFC3339),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return col + strconv.Itoa(row)
}
