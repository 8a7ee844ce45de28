package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/api/dto"
	"github.com/spec-kit/grievance-portal/internal/attach"
	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/directory"
	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/service"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// GrievancesHandler serves the ticket endpoints.
type GrievancesHandler struct {
	service      *service.GrievanceService
	dir          directory.Directory
	attachments  attach.Store
	signedURLTTL time.Duration
	logger       *zap.Logger
}

// NewGrievancesHandler constructs handler. The attachment store may be nil
// when no blob backend is configured; uploads are then skipped.
func NewGrievancesHandler(svc *service.GrievanceService, dir directory.Directory, attachments attach.Store, signedURLTTL time.Duration, logger *zap.Logger) *GrievancesHandler {
	if signedURLTTL <= 0 {
		signedURLTTL = time.Hour
	}
	return &GrievancesHandler{
		service:      svc,
		dir:          dir,
		attachments:  attachments,
		signedURLTTL: signedURLTTL,
		logger:       logger,
	}
}

// List GET /grievances.
func (h *GrievancesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	filter := service.ListFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
	}
	rows, err := h.service.List(c.UserContext(), *principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceSummary, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewGrievanceSummary(&rows[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /grievances/stats.
func (h *GrievancesHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	stats, err := h.service.Stats(c.UserContext(), *principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		Total:  stats.Total,
		Open:   stats.Open,
		WIP:    stats.WIP,
		Closed: stats.Closed,
	}})
}

// Assignees GET /grievances/assignees. Admin-only: the display names tickets
// may be assigned to.
func (h *GrievancesHandler) Assignees(c *fiber.Ctx) error {
	admins, err := h.dir.Admins(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": directory.AdminNames(admins)})
}

// Create POST /grievances. Accepts JSON or multipart (attachments go in the
// "attachments" file field).
func (h *GrievancesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}

	var req dto.CreateGrievanceRequest
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		req.Title = formValue(form, "title")
		req.Description = formValue(form, "description")
		req.Category = formValue(form, "category")
		files = form.File["attachments"]
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.GrievanceCategory(req.Category),
		Attachments: h.uploadAll(c, files),
	}
	g, err := h.service.Create(c.UserContext(), *principal, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewGrievanceSummary(g)})
}

// Get GET /grievances/:id.
func (h *GrievancesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	g, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(g, *principal)})
}

// Update PATCH /grievances/:id.
func (h *GrievancesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.UpdateGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UpdateInput{
		AssignedTo:        req.AssignedTo,
		Comment:           req.Comment,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
	}
	if req.Status != nil {
		status := domain.GrievanceStatus(*req.Status)
		input.Status = &status
	}

	g, err := h.service.Update(c.UserContext(), *principal, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(g, *principal)})
}

// AttachmentURL GET /grievances/:id/attachments/:idx/url.
func (h *GrievancesHandler) AttachmentURL(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("login required")
	}
	if h.attachments == nil {
		return apperrors.NewDomainError("ATTACHMENTS_DISABLED", "attachment store not configured", fiber.StatusNotImplemented, nil)
	}
	g, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(c.Params("idx"))
	if err != nil || idx < 0 || idx >= len(g.Attachments) {
		return apperrors.NewNotFound("attachment", map[string]any{"index": c.Params("idx")})
	}
	url, err := h.attachments.SignedURL(g.Attachments[idx], h.signedURLTTL)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"url": url}})
}

// uploadAll stores the multipart files, logging and skipping failures so the
// enclosing create never aborts on attachment trouble.
func (h *GrievancesHandler) uploadAll(c *fiber.Ctx, files []*multipart.FileHeader) []string {
	if h.attachments == nil || len(files) == 0 {
		return nil
	}
	var refs []string
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("attachment open failed", zap.String("file", fh.Filename), zap.Error(err))
			continue
		}
		ref, err := h.attachments.Upload(c.UserContext(), fh.Filename, f)
		f.Close()
		if err != nil {
			h.logger.Warn("attachment upload failed", zap.String("file", fh.Filename), zap.Error(err))
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func formValue(form *multipart.Form, key string) string {
	vals := form.Value[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func grievanceDetail(g *domain.Grievance, actor domain.User) dto.GrievanceDetailResponse {
	perms := service.PermissionsFor(g, actor)
	comments := domain.ParseComments(g.Comments)
	resp := dto.GrievanceDetailResponse{
		GrievanceSummary: dto.NewGrievanceSummary(g),
		Description:      g.Description,
		Comments:         make([]dto.CommentResponse, 0, len(comments)),
		Attachments:      len(g.Attachments),
		Permissions: dto.PermissionsDTO{
			ChangeStatus:   perms.ChangeStatus,
			ChangeAssignee: perms.ChangeAssignee,
			AddComment:     perms.AddComment,
		},
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			Timestamp: comment.Timestamp,
			Author:    comment.Author,
			Text:      comment.Text,
		})
	}
	return resp
}
