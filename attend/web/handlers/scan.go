package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"rosterhub.com/rosterhub/attend/core"
	web "rosterhub.com/rosterhub/web/common"
)

// Scan processes one presented QR payload. Scan rejections (cooldown, wrong
// status, stale code) are HTTP 200 with success=false so the scanner UI can
// display the message; only transport-level problems map to error statuses.
func (ep *Endpoint) Scan(c *gin.Context) {
	var req ScanRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	sc := core.ScanContext{
		EventID:         req.EventID,
		EventTitle:      req.EventTitle,
		Date:            req.Date,
		Mode:            req.Mode,
		RoundUpInterval: req.RoundUpInterval,
		ActivatedAt:     ep.clock.Now(),
		ActivatedBy:     operatorName(c),
	}
	if req.Location != nil {
		sc.Location = &core.Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	result := ep.scanner.HandleScan(c.Request.Context(), sc, req.Payload)

	c.JSON(http.StatusOK, web.NewSuccessResponse(result))
}

func operatorName(c *gin.Context) string {
	raw, ok := c.Get("claims")
	if !ok {
		return ""
	}
	claims, ok := raw.(jwt.MapClaims)
	if !ok {
		return ""
	}
	if name, ok := claims["unique_name"].(string); ok {
		return name
	}
	return ""
}
