package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/evaluator"
	"github.com/francovalli123/StudyO/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportUserNotFound = errors.New("用户不存在")
	ErrExportNoData       = errors.New("暂无可导出的数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出数据量上限，防止单请求拖垮连接
const exportMaxRows = 2000

// ExportService 导出业务接口
//
// 设计说明：
//   - 周进度导出为 Excel (.xlsx)：挑战历史与目标历史各占一个 Sheet
//   - 专注会话导出为 iCalendar (.ics)，可导入日历应用回看学习时间分布
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportProgressXLSX 导出挑战与目标历史
	ExportProgressXLSX(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	// ExportSessionsICS 导出 [from, to] 内的专注会话
	ExportSessionsICS(ctx context.Context, userID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ────────────────────── ExportProgressXLSX ──────────────────────

func (s *exportService) ExportProgressXLSX(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportUserNotFound
		}
		return nil, "", err
	}

	challenges, _, err := s.repo.Challenge.ListByUser(ctx, userID, 0, exportMaxRows)
	if err != nil {
		s.logger.Error("查询挑战历史失败", zap.Error(err))
		return nil, "", err
	}
	histories, _, err := s.repo.ObjectiveHistory.ListByUser(ctx, userID, 0, exportMaxRows)
	if err != nil {
		s.logger.Error("查询目标历史失败", zap.Error(err))
		return nil, "", err
	}
	if len(challenges) == 0 && len(histories) == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	// Sheet 1: 挑战历史
	const challengeSheet = "Desafíos"
	f.SetSheetName(f.GetSheetName(0), challengeSheet)
	challengeHeaders := []string{"Semana", "Desafío", "Progreso", "Objetivo", "Estado"}
	for col, h := range challengeHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(challengeSheet, cell, h)
	}
	for row, c := range challenges {
		title, _ := evaluator.Metadata(c.ChallengeType, user.Language)
		values := []interface{}{
			c.WeekStart.Format("2006-01-02"),
			title,
			c.CurrentValue,
			c.TargetValue,
			string(c.Status),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(challengeSheet, cell, v)
		}
	}

	// Sheet 2: 目标历史
	const objectiveSheet = "Objetivos"
	if _, err := f.NewSheet(objectiveSheet); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	objectiveHeaders := []string{"Semana", "Título", "Descripción", "Área", "Prioridad", "Completado"}
	for col, h := range objectiveHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(objectiveSheet, cell, h)
	}
	for row, h := range histories {
		completed := "No"
		if h.WasCompleted {
			completed = "Sí"
		}
		values := []interface{}{
			h.WeekStartDate.Format("2006-01-02"),
			h.Title,
			h.Description,
			h.Area,
			h.Priority,
			completed,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(objectiveSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("studyo_progreso_%s.xlsx", time.Now().UTC().Format("20060102"))
	return buf, filename, nil
}

// ────────────────────── ExportSessionsICS ──────────────────────

func (s *exportService) ExportSessionsICS(ctx context.Context, userID string, from, to time.Time) (*bytes.Buffer, string, error) {
	sessions, err := s.repo.Pomodoro.ListInWindow(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询会话失败", zap.Error(err))
		return nil, "", err
	}
	if len(sessions) == 0 {
		return nil, "", ErrExportNoData
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//StudyO//Sessions//ES")

	for i := range sessions {
		sess := &sessions[i]
		event := cal.AddEvent(fmt.Sprintf("%s@studyo", sess.SessionID))
		event.SetCreatedTime(sess.CreatedAt)
		event.SetStartAt(sess.StartTime)
		event.SetEndAt(sess.EndTime)
		event.SetSummary(fmt.Sprintf("Sesión de estudio (%.0f min)", sess.DurationMinutes))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("studyo_sesiones_%s.ics", time.Now().UTC().Format("20060102"))
	return buf, filename, nil
}
