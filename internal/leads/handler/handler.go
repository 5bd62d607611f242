package handler

import (
	"io"
	"net/http"
	"strings"

	"lead_automation_backend/internal/leads/management"
	"lead_automation_backend/internal/leads/qualification"
	"lead_automation_backend/internal/leads/transport"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"

	maxImportBytes = 8 << 20
)

type Handler struct {
	mgmt    *management.Service
	qualify *qualification.Service
}

func New(mgmt *management.Service, qualify *qualification.Service) *Handler {
	return &Handler{mgmt: mgmt, qualify: qualify}
}

// RegisterRoutes mounts the lead routes. Every mutating route runs behind gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, gate gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("", gate, h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/import", gate, h.Import)
	rg.POST("/qualify", gate, h.QualifyAll)
	rg.POST("/:id/qualify", gate, h.Qualify)
	rg.POST("/:id/call", gate, h.DispatchCall)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	resp, err := h.mgmt.Add(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	lead, err := h.mgmt.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) List(c *gin.Context) {
	leads, err := h.mgmt.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, leads)
}

// Import accepts a multipart upload in field "file" or a raw text/csv body.
func (h *Handler) Import(c *gin.Context) {
	body, closeBody, err := importBody(c)
	if httpkit.HandleError(c, err) {
		return
	}
	defer closeBody()

	result, err := h.mgmt.ImportCSV(c.Request.Context(), io.LimitReader(body, maxImportBytes))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Qualify(c *gin.Context) {
	out, err := h.qualify.Qualify(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toQualificationResponse(out))
}

func (h *Handler) QualifyAll(c *gin.Context) {
	outcomes, failures, err := h.qualify.QualifyAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.QualifyAllResponse{
		Results: make([]transport.QualificationResponse, 0, len(outcomes)),
		Errors:  make([]transport.QualifyFailure, 0, len(failures)),
	}
	for _, out := range outcomes {
		resp.Results = append(resp.Results, toQualificationResponse(out))
	}
	for _, f := range failures {
		resp.Errors = append(resp.Errors, transport.QualifyFailure{LeadID: f.LeadID, Error: f.Err.Error()})
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DispatchCall(c *gin.Context) {
	d, err := h.qualify.DispatchCall(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DispatchCallResponse{
		Lead:        management.ToLeadResponse(d.Lead),
		Dispatched:  d.Dispatched,
		CallRequest: d.Lead.CallRequestID,
	})
}

func toQualificationResponse(out qualification.Outcome) transport.QualificationResponse {
	resp := transport.QualificationResponse{
		Lead:             management.ToLeadResponse(out.Lead),
		Qualified:        out.Result.Qualified,
		Threshold:        out.Result.Threshold,
		AlreadyQualified: out.AlreadyQualified,
	}
	if out.CallRequest != nil {
		resp.CallRequest = out.CallRequest.Name
	}
	return resp
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, nil, apperr.BadRequest("multipart field \"file\" is required")
		}
		f, err := fileHeader.Open()
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindBadRequest, "cannot open uploaded file", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
	return c.Request.Body, func() {}, nil
}
