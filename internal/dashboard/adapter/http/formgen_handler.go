package http

import (
	"io"
	"mime/multipart"
	"strings"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

// FormGeneratorHandler fronts the form generator API for the browser.
type FormGeneratorHandler struct {
	forms FormGeneratorService
	log   logger.Logger
}

func NewFormGeneratorHandler(forms FormGeneratorService, log logger.Logger) *FormGeneratorHandler {
	return &FormGeneratorHandler{
		forms: forms,
		log:   log.WithComponent("form_generator_handler"),
	}
}

func (h *FormGeneratorHandler) RegisterRoutes(router fiber.Router, middleware ...fiber.Handler) {
	fg := router.Group("/form-generator", middleware...)
	fg.Post("/sheets", h.Sheets)
	fg.Post("/generate", h.Generate)
	fg.Get("/status/:jobId", h.Status)
	fg.Get("/forms", h.ListForms)
	fg.Get("/forms/:name", h.GetForm)
	fg.Get("/forms/:name/translation", h.GetTranslation)
}

// POST /form-generator/sheets (multipart "file")
func (h *FormGeneratorHandler) Sheets(c *fiber.Ctx) error {
	name, data, err := readUpload(c, "file")
	if err != nil {
		return badRequest(c, "missing_file", "A workbook must be uploaded in the \"file\" field")
	}
	sheets, err := h.forms.Sheets(c.UserContext(), name, data)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"sheets": sheets})
}

// POST /form-generator/generate (multipart "metadata_file", "sheets", "preview_mode")
func (h *FormGeneratorHandler) Generate(c *fiber.Ctx) error {
	name, data, err := readUpload(c, "metadata_file", "file")
	if err != nil {
		return badRequest(c, "missing_file", "A workbook must be uploaded in the \"metadata_file\" field")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse multipart form")
	}

	jobID, err := h.forms.Generate(c.UserContext(), model.GenerateRequest{
		FileName: name,
		File:     data,
		Sheets:   splitSheets(form.Value["sheets"]),
		Preview:  cast.ToBool(c.FormValue("preview_mode", "true")),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// GET /form-generator/status/:jobId[?wait=true]
func (h *FormGeneratorHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	var (
		job *model.FormJob
		err error
	)
	if c.QueryBool("wait", false) {
		job, err = h.forms.WaitForJob(c.UserContext(), jobID, nil)
	} else {
		job, err = h.forms.Status(c.UserContext(), jobID)
	}
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(job)
}

// GET /form-generator/forms
func (h *FormGeneratorHandler) ListForms(c *fiber.Ctx) error {
	forms, err := h.forms.Forms(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"forms": forms})
}

// GET /form-generator/forms/:name[?download=true]
func (h *FormGeneratorHandler) GetForm(c *fiber.Ctx) error {
	return h.sendForm(c, false)
}

// GET /form-generator/forms/:name/translation[?download=true]
func (h *FormGeneratorHandler) GetTranslation(c *fiber.Ctx) error {
	return h.sendForm(c, true)
}

func (h *FormGeneratorHandler) sendForm(c *fiber.Ctx, translation bool) error {
	download := c.QueryBool("download", false)
	art, err := h.forms.Form(c.UserContext(), c.Params("name"), translation, download)
	if err != nil {
		return respondError(c, h.log, err)
	}
	contentType := art.ContentType
	if contentType == "" {
		contentType = fiber.MIMEApplicationJSON
	}
	c.Set(fiber.HeaderContentType, contentType)
	if download {
		c.Attachment(art.Name)
	}
	return c.Send(art.Body)
}

// readUpload returns the first uploaded file found under one of fields.
func readUpload(c *fiber.Ctx, fields ...string) (string, []byte, error) {
	var (
		fh  *multipart.FileHeader
		err error
	)
	for _, field := range fields {
		if fh, err = c.FormFile(field); err == nil {
			break
		}
	}
	if err != nil {
		return "", nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

// splitSheets accepts repeated "sheets" fields, comma separated lists, or both.
func splitSheets(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
