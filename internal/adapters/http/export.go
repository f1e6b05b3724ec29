package httpadapter

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

// exportResults renders all results of a job as an XLSX sheet: one row
// per processed document, one column per schema field plus an errors
// column.
func (rt *Router) exportResults(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id must be an integer"})
		return
	}

	job, err := rt.jobs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := rt.results.ListByJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := buildResultsWorkbook(job, results)
	if err != nil {
		writeError(w, err)
		return
	}
	defer book.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="job_%d_results.xlsx"`, id))
	if err := book.Write(w); err != nil {
		slog.Error("export_write_failed", "request_id", requestIDFromContext(r.Context()), "job_id", id, "error", err)
	}
}

func buildResultsWorkbook(job *domain.Job, results []domain.Result) (*excelize.File, error) {
	book := excelize.NewFile()
	const sheet = "Results"
	if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	fields := make([]string, 0, len(job.Schema))
	for name := range job.Schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	header := append([]string{"pdf_id"}, fields...)
	header = append(header, "errors", "processed_at")
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, result := range results {
		row := make([]any, 0, len(header))
		row = append(row, result.PDFID)
		for _, field := range fields {
			value, ok := result.ExtractedFields[field]
			if !ok {
				value = ""
			}
			row = append(row, fmt.Sprint(value))
		}
		row = append(row, joinLines(result.Errors), result.ProcessedAt.Format("2006-01-02 15:04:05"))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row coordinates: %w", err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	return book, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}
