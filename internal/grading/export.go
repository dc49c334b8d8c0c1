package grading

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/SAP-F-2025/grading-service/internal/models"
)

// GradebookHeader returns the export column names: student, one column per
// configured category, overall.
func GradebookHeader(gradebook *models.CourseGradebook) []string {
	header := make([]string, 0, len(gradebook.Categories)+2)
	header = append(header, "Student")
	for _, c := range gradebook.Categories {
		header = append(header, c.Category)
	}
	return append(header, "Overall")
}

// GradebookRow formats one student's percentages with two decimals. A
// category or overall grade without data is left blank.
func GradebookRow(gradebook *models.CourseGradebook, student *models.StudentGradeSummary) []string {
	row := make([]string, 0, len(gradebook.Categories)+2)
	row = append(row, student.StudentName)
	for _, c := range gradebook.Categories {
		cat, ok := student.Categories[c.Category]
		if !ok || !cat.HasData {
			row = append(row, "")
			continue
		}
		row = append(row, formatPercent(cat.Percentage))
	}
	if student.HasData {
		return append(row, formatPercent(student.OverallPercentage))
	}
	return append(row, "")
}

// ExportGradebookCSV renders the gradebook as CSV text in the aggregator's
// student order.
func ExportGradebookCSV(gradebook *models.CourseGradebook) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(GradebookHeader(gradebook)); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range gradebook.Students {
		if err := writer.Write(GradebookRow(gradebook, &gradebook.Students[i])); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.String(), nil
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
