package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	"github.com/yourusername/learnhub-api/internal/handler/dto"
	"github.com/yourusername/learnhub-api/internal/handler/helper"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
	"github.com/yourusername/learnhub-api/internal/service"
	"github.com/yourusername/learnhub-api/internal/service/quizengine"
)

// QuizService - операции над викторинами с проверкой доступа
type QuizService interface {
	StartQuiz(ctx context.Context, caller entity.Principal, in quizengine.StartQuizInput) (*quizengine.QuizView, error)
	LoadActive(ctx context.Context, caller entity.Principal) (*quizengine.QuizView, error)
	Deactivate(ctx context.Context, caller entity.Principal) (int64, error)
	GetQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID) (*quizengine.QuizView, error)
	ListQuizzes(ctx context.Context, caller entity.Principal, ownerID uuid.UUID, filters repository.QuizFilters, page, pageSize int) ([]entity.Quiz, int64, error)
	CreateQuiz(ctx context.Context, caller entity.Principal, ownerID uuid.UUID, in quizengine.CreateQuizInput) (*quizengine.QuizView, error)
	UpdateQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID, in quizengine.UpdateQuizInput) (*quizengine.QuizView, error)
	DeleteQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID) error
	ActivateQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID) (*quizengine.QuizView, error)
	SaveProgress(ctx context.Context, caller entity.Principal, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error)
	SubmitQuiz(ctx context.Context, caller entity.Principal, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error)
	ExportReport(ctx context.Context, caller entity.Principal, quizID uuid.UUID) (*service.Report, error)
}

// QuizHandler обрабатывает запросы, связанные с викторинами
type QuizHandler struct {
	quizService QuizService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// StartQuiz начинает новую викторину текущего пользователя
// POST /api/quizzes/start
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	// Пустое тело допустимо: длина по умолчанию, весь пул
	var req dto.StartQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.quizService.StartQuiz(c.Request.Context(), caller, req.ToInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuizViewResponse(view))
}

// GetActiveQuiz возвращает активную викторину текущего пользователя
// GET /api/quizzes/active
func (h *QuizHandler) GetActiveQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	view, err := h.quizService.LoadActive(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizViewResponse(view))
}

// DeactivateQuiz переводит активную викторину текущего пользователя в in_progress
// POST /api/quizzes/deactivate
func (h *QuizHandler) DeactivateQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	affected, err := h.quizService.Deactivate(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": affected})
}

// ListUserQuizzes возвращает викторины пользователя
// GET /api/users/:user_id/quizzes?status=&page=&page_size=
func (h *QuizHandler) ListUserQuizzes(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	ownerID := c.MustGet("userID").(uuid.UUID)
	page, pageSize := helper.ParsePagination(c)
	filters := repository.QuizFilters{Status: c.Query("status")}

	quizzes, total, err := h.quizService.ListQuizzes(c.Request.Context(), caller, ownerID, filters, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedQuizResponse(quizzes, total, page, pageSize))
}

// CreateQuiz создает заполненную викторину для пользователя
// POST /api/users/:user_id/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	ownerID := c.MustGet("userID").(uuid.UUID)

	var req dto.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.quizService.CreateQuiz(c.Request.Context(), caller, ownerID, req.ToInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuizViewResponse(view))
}

// GetQuiz возвращает викторину с упражнениями
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uuid.UUID) // Получаем из контекста

	view, err := h.quizService.GetQuiz(c.Request.Context(), caller, quizID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizViewResponse(view))
}

// UpdateQuiz частично обновляет викторину
// PATCH /api/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uuid.UUID)

	var req dto.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.quizService.UpdateQuiz(c.Request.Context(), caller, quizID, req.ToInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizViewResponse(view))
}

// DeleteQuiz удаляет викторину
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uuid.UUID)

	if err := h.quizService.DeleteQuiz(c.Request.Context(), caller, quizID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivateQuiz делает викторину активной
// POST /api/quizzes/:id/activate
func (h *QuizHandler) ActivateQuiz(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uuid.UUID)

	view, err := h.quizService.ActivateQuiz(c.Request.Context(), caller, quizID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizViewResponse(view))
}

// SaveQuiz сохраняет промежуточные ответы
// PUT /api/quizzes/:id/save
func (h *QuizHandler) SaveQuiz(c *gin.Context) {
	h.grade(c, h.quizService.SaveProgress)
}

// SubmitQuiz отправляет викторину на проверку
// POST /api/quizzes/:id/submit
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	h.grade(c, h.quizService.SubmitQuiz)
}

type gradeFunc func(ctx context.Context, caller entity.Principal, quizID uuid.UUID, answers []quizengine.Answer) (*quizengine.SubmissionResult, error)

func (h *QuizHandler) grade(c *gin.Context, fn gradeFunc) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uuid.UUID)

	var req dto.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers, malformed := req.ToAnswers()
	if len(malformed) > 0 {
		logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"quiz_id": quizID,
			"entries": malformed,
		}).Warn("skipping answers without a valid exercise_id")
	}

	result, err := fn(c.Request.Context(), caller, quizID, answers)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmissionResponse(result, len(malformed)))
}

// ExportReport экспортирует отчёт по викторине в CSV или XLSX
// GET /api/quizzes/:id/report?format=csv|xlsx
func (h *QuizHandler) ExportReport(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uuid.UUID)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
		return
	}

	report, err := h.quizService.ExportReport(c.Request.Context(), caller, quizID)
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%s_report_%s", quizID, time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		h.exportXLSX(c, report, filename)
	default:
		h.exportCSV(c, report, filename)
	}
}

var reportHeaders = []string{"Position", "Exercise ID", "Prompt", "Result", "Solution"}

// exportCSV экспортирует отчёт в CSV с правильным экранированием спецсимволов
func (h *QuizHandler) exportCSV(c *gin.Context, report *service.Report, filename string) {
	log := logger.FromContext(c.Request.Context())

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	// BOM для корректного отображения UTF-8 в Excel
	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		log.WithError(err).Error("failed to write CSV BOM")
		return
	}

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(reportHeaders); err != nil {
		log.WithError(err).Error("failed to write CSV header")
		return
	}
	for _, row := range report.Rows {
		record := []string{
			strconv.Itoa(row.Position),
			row.ExerciseID.String(),
			sanitizeForExcel(row.Prompt),
			row.Result,
			sanitizeForExcel(row.Solution),
		}
		if err := writer.Write(record); err != nil {
			log.WithError(err).Error("failed to write CSV row")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.WithError(err).Error("failed to flush CSV")
	}
}

// exportXLSX экспортирует отчёт в Excel с использованием StreamWriter
func (h *QuizHandler) exportXLSX(c *gin.Context, report *service.Report, filename string) {
	log := logger.FromContext(c.Request.Context())

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Report"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		log.WithError(err).Error("failed to rename sheet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.WithError(err).Error("failed to create stream writer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(reportHeaders))
	for i, name := range reportHeaders {
		headers[i] = name
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.WithError(err).Error("failed to write header row")
	}

	for i, row := range report.Rows {
		cell := fmt.Sprintf("A%d", i+2) // 1 - заголовки
		values := []interface{}{
			row.Position,
			row.ExerciseID.String(),
			sanitizeForExcel(row.Prompt),
			row.Result,
			sanitizeForExcel(row.Solution),
		}
		if err := sw.SetRow(cell, values); err != nil {
			log.WithError(err).WithField("row", i+2).Error("failed to write row")
		}
	}

	if err := sw.Flush(); err != nil {
		log.WithError(err).Error("failed to flush stream writer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.WithError(err).Error("failed to write Excel response")
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
