package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scanhub/internal/services"
	"scanhub/pkg/engine"
	"scanhub/pkg/findings"
	"scanhub/pkg/logger"
	"scanhub/pkg/scanerr"
)

type ScanHandler struct {
	scanService services.ScanServiceMethods
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanServiceMethods) *ScanHandler {
	return &ScanHandler{scanService: scanService, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *ScanHandler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorInfo{
			Kind:    "invalid_request",
			Message: "invalid request payload",
		}})
		return
	}

	kind, ok := findings.ParseKind(req.Type)
	if !ok {
		h.logger.WithFields(logger.Fields{"type": req.Type}).Warn("Unknown scan type requested")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorInfo{
			Kind:    "invalid_request",
			Message: "unknown scan type " + req.Type,
		}})
		return
	}

	h.logger.WithFields(logger.Fields{"type": req.Type, "target": req.Target}).Info("Starting scan")

	result, err := h.scanService.RunScan(c.Request.Context(), engine.ScanRequest{
		Target: req.Target,
		Kind:   kind,
	})
	if err != nil {
		h.logger.WithError(err).Error("Scan failed")
		// Partial results salvaged before a timeout kill still go back to
		// the caller, alongside the error.
		c.JSON(scanerr.HTTPStatus(err), ErrorResponse{
			Error:  ErrorInfo{Kind: scanerr.Kind(err), Message: err.Error()},
			Result: result,
		})
		return
	}

	c.JSON(http.StatusOK, ScanResponse{Result: result})
}

func (h *ScanHandler) CancelScan(c *gin.Context) {
	jobID := c.Param("id")
	if !h.scanService.CancelScan(jobID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorInfo{
			Kind:    "not_found",
			Message: "no running job with id " + jobID,
		}})
		return
	}
	c.JSON(http.StatusOK, CancelResponse{JobID: jobID, Cancelled: true})
}

func (h *ScanHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.scanService.Status())
}

func (h *ScanHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
