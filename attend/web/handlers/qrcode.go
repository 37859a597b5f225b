package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub.com/rosterhub/attend/core"
	web "rosterhub.com/rosterhub/web/common"
)

// GetStaffQR returns a freshly stamped payload for the staff member's device
// to render. The credential is created on first request.
func (ep *Endpoint) GetStaffQR(c *gin.Context) {
	staffID := c.Param("staffId")

	cred, err := ep.credentials.GetOrCreate(c.Request.Context(), staffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	now := ep.clock.Now()
	encoded, err := core.NewPayload(staffID, cred.SecurityCode, now).Encode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(QRCodeDTO{
		StaffID:           staffID,
		Payload:           encoded,
		GeneratedAt:       now.UnixMilli(),
		ExpiresInSeconds:  int(core.PayloadTTL.Seconds()),
		RegenerationCount: cred.RegenerationCount,
		TotalScanCount:    cred.TotalScanCount,
	}))
}

// RotateStaffQR replaces the security code, invalidating every payload
// generated before the rotation.
func (ep *Endpoint) RotateStaffQR(c *gin.Context) {
	staffID := c.Param("staffId")

	cred, err := ep.credentials.Rotate(c.Request.Context(), staffID)
	if errors.Is(err, core.ErrCredentialNotFound) {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("staff QR credential not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	now := ep.clock.Now()
	encoded, err := core.NewPayload(staffID, cred.SecurityCode, now).Encode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(QRCodeDTO{
		StaffID:           staffID,
		Payload:           encoded,
		GeneratedAt:       now.UnixMilli(),
		ExpiresInSeconds:  int(core.PayloadTTL.Seconds()),
		RegenerationCount: cred.RegenerationCount,
		TotalScanCount:    cred.TotalScanCount,
	}))
}
