package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rosterhub.com/rosterhub/attend/core"
	coredb "rosterhub.com/rosterhub/core"
)

type Endpoint struct {
	dm           *coredb.DatabaseManager
	scanner      *core.Scanner
	credentials  core.CredentialStore
	clock        core.Clock
	exportBucket string
	log          *zap.Logger
}

func Register(
	r *gin.RouterGroup,
	dm *coredb.DatabaseManager,
	scanner *core.Scanner,
	credentials core.CredentialStore,
	clock core.Clock,
	exportBucket string,
	log *zap.Logger,
) {
	endpoint := &Endpoint{
		dm:           dm,
		scanner:      scanner,
		credentials:  credentials,
		clock:        clock,
		exportBucket: exportBucket,
		log:          log,
	}

	r.POST("/scan", endpoint.Scan)

	r.GET("/staff/:staffId/qr", endpoint.GetStaffQR)
	r.POST("/staff/:staffId/qr/rotate", endpoint.RotateStaffQR)

	r.POST("/scan-history/search", endpoint.SearchScanHistory)

	r.GET("/worklogs/export", endpoint.ExportWorkLogs)
	r.GET("/worklogs/exports", endpoint.ListExports)
	r.GET("/worklogs/exports/:key", endpoint.DownloadExport)
}
