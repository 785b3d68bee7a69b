package service

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func fail(c *fiber.Ctx, status int, message string, err error) error {
	res := model.ErrorResponse{Success: false, Message: message}
	if err != nil {
		res.Error = err.Error()
	}
	return c.Status(status).JSON(res)
}

// failRepo maps repository errors onto status codes. Unexpected errors are
// reported before answering 500.
func failRepo(c *fiber.Ctx, err error, notFoundMsg, failMsg string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fail(c, fiber.StatusNotFound, notFoundMsg, nil)
	case errors.Is(err, repo.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "Data sudah terdaftar", nil)
	}
	helper.ReportError(failMsg, err, map[string]interface{}{"path": c.Path()})
	return fail(c, fiber.StatusInternalServerError, failMsg, err)
}

func invalidInput(c *fiber.Ctx, err error) error {
	return fail(c, fiber.StatusBadRequest, "Input tidak valid", err)
}

func validationFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{
		Success: false,
		Message: "Validasi gagal",
		Error:   helper.FormatValidationErrors(err),
	})
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("user_id").(uuid.UUID)
	return id
}

func currentRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// sendDocument answers a generated file as an attachment download.
func sendDocument(c *fiber.Ctx, mime, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"; filename*=UTF-8''`+url.PathEscape(filename))
	return c.Send(body)
}
