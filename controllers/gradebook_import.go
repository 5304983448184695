package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"
	"academica_go/services"
	"academica_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// GradebookImportController handles bulk grade entry from CSV/XLSX files.
// Expected columns: StudentUsername, AssignmentCode, Score, Feedback.
type GradebookImportController struct{}

// Import applies a spreadsheet of grades row by row. Bad rows are collected
// and reported; good rows are still applied, so one typo never blocks a whole
// class's grades.
func (ic *GradebookImportController) Import(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if !utils.IsValidImportExtension(fileHeader.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv, xlsx)"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
	}
	defer file.Close()

	var rows [][]string
	var parseErr error
	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		rows, parseErr = readGradeCSV(file)
	} else {
		// Buffer the upload to disk for excelize
		tmpDir, _ := os.MkdirTemp("", "gradeimport-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s.xlsx", time.Now().UnixNano(), uuid.NewString()[:8]))
		if err := c.SaveFile(fileHeader, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		rows, parseErr = readGradeXLSX(tmp)
		_ = os.RemoveAll(tmpDir)
	}
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": parseErr.Error()})
	}
	if len(rows) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file has no data rows"})
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"StudentUsername", "AssignmentCode", "Score"} {
		if _, ok := col[required]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("missing column: %s", required),
			})
		}
	}

	batchID := uuid.NewString()
	gradebook := services.NewGradebookService()

	applied := 0
	var rowErrors []string
	fail := func(rowNum int, format string, args ...interface{}) {
		rowErrors = append(rowErrors, fmt.Sprintf("row %d: %s", rowNum, fmt.Sprintf(format, args...)))
	}

	for i := 1; i < len(rows); i++ {
		r := rows[i]
		get := func(key string) string {
			if idx, ok := col[key]; ok && idx < len(r) {
				return strings.TrimSpace(r[idx])
			}
			return ""
		}

		username := get("StudentUsername")
		assignmentCode := get("AssignmentCode")
		rawScore := get("Score")
		if username == "" || assignmentCode == "" {
			fail(i+1, "StudentUsername and AssignmentCode are required")
			continue
		}

		var user models.User
		err := database.DB.Scopes(database.WithinOrg(claims.OrgID)).
			Where("username = ?", username).
			Preload("Student").
			First(&user).Error
		if err != nil || user.Student == nil {
			fail(i+1, "unknown student %q", username)
			continue
		}

		var assignment models.Assignment
		err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
			Where("code = ?", assignmentCode).
			First(&assignment).Error
		if err != nil {
			fail(i+1, "unknown assignment %q", assignmentCode)
			continue
		}

		// An empty score cell clears the grade back to ungraded
		var score *float64
		if rawScore != "" {
			parsed, err := strconv.ParseFloat(rawScore, 64)
			if err != nil {
				fail(i+1, "invalid score %q", rawScore)
				continue
			}
			score = &parsed
		}

		_, err = gradebook.UpsertScore(claims.OrgID, assignment.ID, user.Student.ID, score, get("Feedback"))
		if err != nil {
			fail(i+1, "%v", err)
			continue
		}
		applied++
	}

	middleware.LogActivity(c, "CREATE", "grade_imports", 0, fiber.Map{
		"batch_id": batchID,
		"file":     fileHeader.Filename,
		"applied":  applied,
		"errors":   len(rowErrors),
	})

	return c.JSON(fiber.Map{
		"batch_id": batchID,
		"applied":  applied,
		"rows":     len(rows) - 1,
		"errors":   rowErrors,
	})
}

func readGradeCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readGradeXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	return f.GetRows(sheet)
}
