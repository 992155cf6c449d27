package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/dto"
	"github.com/yourusername/habitleague-api/internal/handler/helper"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
)

// LifecycleUseCase операции ежедневного прохода и чтения его результатов
type LifecycleUseCase interface {
	PerformDailyCheck(ctx context.Context, trigger string) (*lifecycle.RunSummary, error)
	RunForDate(ctx context.Context, checkDate time.Time, trigger string) (*lifecycle.RunSummary, error)
	ReconcileUnpaid(ctx context.Context) (*lifecycle.ReconcileSummary, error)
	PoolStatus(ctx context.Context, challengeID uint) (*lifecycle.PoolStatus, error)
	DailyChecks(ctx context.Context, challengeID uint) ([]entity.DailyEvidenceCheck, error)
	Distributions(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error)
	UnpaidDistributions(ctx context.Context) ([]entity.PrizeDistribution, error)
}

// LifecycleHandler операционные эндпоинты ежедневного прохода
type LifecycleHandler struct {
	engine LifecycleUseCase
	log    *logrus.Entry
	now    func() time.Time
}

// NewLifecycleHandler создает обработчик прохода
func NewLifecycleHandler(engine LifecycleUseCase, log *logrus.Entry) *LifecycleHandler {
	return &LifecycleHandler{
		engine: engine,
		log:    log.WithField("component", "LifecycleHandler"),
		now:    time.Now,
	}
}

// RunDailyCheck запускает проход вручную. Без даты обрабатывается вчерашний день.
func (h *LifecycleHandler) RunDailyCheck(c *gin.Context) {
	var req dto.RunLifecycleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request data: "+err.Error())
			return
		}
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}

	var (
		summary *lifecycle.RunSummary
		err     error
	)
	if req.Date == "" {
		summary, err = h.engine.PerformDailyCheck(c.Request.Context(), lifecycle.TriggerManual)
	} else {
		date, parseErr := helper.ParseDate(req.Date)
		if parseErr != nil {
			badRequest(c, parseErr.Error())
			return
		}
		summary, err = h.engine.RunForDate(c.Request.Context(), date, lifecycle.TriggerManual)
	}
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"check_date": summary.CheckDate,
		"processed":  summary.Processed,
		"failed":     summary.Failed,
	}).Info("[LifecycleHandler] Ручной проход выполнен")
	c.JSON(http.StatusOK, summary)
}

// Reconcile повторяет невыплаченные призы
func (h *LifecycleHandler) Reconcile(c *gin.Context) {
	summary, err := h.engine.ReconcileUnpaid(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// PoolStatus возвращает состояние призового фонда челленджа
func (h *LifecycleHandler) PoolStatus(c *gin.Context) {
	challengeID := c.MustGet("challengeID").(uint)

	status, err := h.engine.PoolStatus(c.Request.Context(), challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPoolStatusResponse(status))
}

// DailyChecks возвращает аудит проходов челленджа
func (h *LifecycleHandler) DailyChecks(c *gin.Context) {
	challengeID := c.MustGet("challengeID").(uint)

	checks, err := h.engine.DailyChecks(c.Request.Context(), challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": dto.NewDailyCheckListResponse(checks)})
}

// Distributions возвращает выплаты челленджа
func (h *LifecycleHandler) Distributions(c *gin.Context) {
	challengeID := c.MustGet("challengeID").(uint)

	list, err := h.engine.Distributions(c.Request.Context(), challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distributions": dto.NewDistributionListResponse(list)})
}

// ExportUnpaid выгружает невыплаченные призы в XLSX для ручной сверки
func (h *LifecycleHandler) ExportUnpaid(c *gin.Context) {
	list, err := h.engine.UnpaidDistributions(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Unpaid"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		h.log.WithError(err).Error("[LifecycleHandler] Ошибка переименования листа")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// StreamWriter для больших выгрузок
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.log.WithError(err).Error("[LifecycleHandler] Ошибка создания StreamWriter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Distribution ID", "Challenge ID", "Member ID", "User ID", "Amount", "Attempts", "Last error", "Created at"}
	if err := sw.SetRow("A1", headers); err != nil {
		h.log.WithError(err).Error("[LifecycleHandler] Ошибка записи заголовков")
	}

	for i, d := range list {
		rowNum := i + 2
		cell := fmt.Sprintf("A%d", rowNum)
		row := []interface{}{
			d.ID,
			d.ChallengeID,
			d.ChallengeMemberID,
			d.UserID,
			helper.FormatMoney(d.PrizeAmount),
			d.PayoutAttempts,
			sanitizeForExcel(d.LastPayoutError),
			d.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, row); err != nil {
			h.log.WithError(err).Errorf("[LifecycleHandler] Ошибка записи строки %d", rowNum)
		}
	}

	if err := sw.Flush(); err != nil {
		h.log.WithError(err).Error("[LifecycleHandler] Ошибка при Flush")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	filename := fmt.Sprintf("unpaid_distributions_%s", h.now().Format(entity.DateLayout))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.WithError(err).Error("[LifecycleHandler] Ошибка записи Excel в response")
	}
}
