package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rosterhub.com/rosterhub/attend/model"
	"rosterhub.com/rosterhub/utils"
	web "rosterhub.com/rosterhub/web/common"
)

func (ep *Endpoint) SearchScanHistory(c *gin.Context) {
	var params ScanHistorySearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	limit := 1000
	offset := 0
	if val, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = val
	}
	if val, err := strconv.Atoi(c.Query("offset")); err == nil {
		offset = val
	}

	query := ep.dm.DB(c.Request.Context()).Model(&model.ScanHistory{}).
		Where("date BETWEEN ? AND ?",
			params.StartDate.Format(utils.DateLayout),
			params.EndDate.Format(utils.DateLayout))

	if len(params.StaffIDs) > 0 {
		query = query.Where("staff_id IN ?", params.StaffIDs)
	}
	if len(params.EventIDs) > 0 {
		query = query.Where("event_id IN ?", params.EventIDs)
	}
	if len(params.Modes) > 0 {
		query = query.Where("mode IN ?", params.Modes)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	var entries []model.ScanHistory
	err := query.Session(&gorm.Session{}).
		Order("scanned_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSearchResponse(entries, total))
}
