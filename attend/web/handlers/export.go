package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"rosterhub.com/rosterhub/attend/model"
	"rosterhub.com/rosterhub/infrastructure/filesystem"
	"rosterhub.com/rosterhub/utils"
	web "rosterhub.com/rosterhub/web/common"
)

const (
	exportPrefix      = "worklog-exports/"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheetName   = "Work Logs"
	exportTimeDisplay = "2006-01-02 15:04"
)

var exportHeaders = []string{
	"Staff ID", "User ID", "Date", "Status",
	"Scheduled Start", "Scheduled End", "Original Scheduled End",
	"Actual Start", "Actual End",
	"Check-In Scanned At", "Check-Out Scanned At",
}

// ExportWorkLogs renders the event's work logs as a spreadsheet. With
// ?upload=s3 the file goes to the export bucket instead of the response body.
func (ep *Endpoint) ExportWorkLogs(c *gin.Context) {
	var params WorkLogExportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	ctx := c.Request.Context()

	query := ep.dm.DB(ctx).Where("event_id = ?", params.EventID)
	if params.StartDate != "" {
		query = query.Where("date >= ?", params.StartDate)
	}
	if params.EndDate != "" {
		query = query.Where("date <= ?", params.EndDate)
	}

	var logs []model.WorkLog
	if err := query.Order("date, staff_id").Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	f.SetSheetName(sheet, exportSheetName)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(exportSheetName, cell, header)
	}

	rows := utils.Map(logs, func(wl model.WorkLog) []interface{} {
		return []interface{}{
			wl.StaffID, wl.UserID, wl.Date, wl.Status,
			formatExportTime(wl.ScheduledStartTime),
			formatExportTime(wl.ScheduledEndTime),
			formatExportTime(wl.OriginalScheduledEndTime),
			formatExportTime(wl.ActualStartTime),
			formatExportTime(wl.ActualEndTime),
			formatExportTime(wl.CheckInScannedAt),
			formatExportTime(wl.CheckOutScannedAt),
		}
	})
	for row, values := range rows {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(exportSheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	filename := fmt.Sprintf("worklogs_%s_%s.xlsx", params.EventID, ep.clock.Now().Format("20060102T150405"))

	if params.Upload == "s3" {
		if ep.exportBucket == "" {
			c.JSON(http.StatusBadRequest, web.NewErrorResponse("no export bucket configured"))
			return
		}
		key := exportPrefix + filename
		if err := filesystem.WriteFile(ctx, ep.exportBucket, key, buf, xlsxContentType); err != nil {
			ep.log.Error("failed to upload work log export", zap.Error(err),
				zap.String("bucket", ep.exportBucket), zap.String("key", key))
			c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
			"bucket": ep.exportBucket,
			"key":    key,
			"rows":   len(logs),
		}))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (ep *Endpoint) ListExports(c *gin.Context) {
	if ep.exportBucket == "" {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("no export bucket configured"))
		return
	}

	keys, err := filesystem.ListFiles(c.Request.Context(), ep.exportBucket, exportPrefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"keys": keys}))
}

func (ep *Endpoint) DownloadExport(c *gin.Context) {
	if ep.exportBucket == "" {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("no export bucket configured"))
		return
	}

	key := exportPrefix + c.Param("key")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Param("key")))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)

	if err := filesystem.ReadFile(c.Request.Context(), ep.exportBucket, key, c.Writer); err != nil {
		ep.log.Error("failed to stream work log export", zap.Error(err),
			zap.String("bucket", ep.exportBucket), zap.String("key", key))
	}
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeDisplay)
}
