package handler

import (
	"io"
	"mime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docstore/internal/http/middleware"
	"docstore/internal/service"
)

// UploadFile stores the multipart field "file". New content answers 201,
// content already in the store answers 200 with the existing id.
func UploadFile(svc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil || fh.Size == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			c.Locals(middleware.ErrorLocalKey, err.Error())
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
		}

		res, err := svc.Store(c.UserContext(), data, fh.Filename)
		if err != nil {
			return writeServiceError(c, err)
		}

		status := fiber.StatusOK
		if res.IsNew {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(res)
	}
}

// GetFile streams the stored bytes back as an attachment.
func GetFile(svc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fc, err := svc.Retrieve(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, fc.ContentType)
		if disp := mime.FormatMediaType("attachment", map[string]string{"filename": fc.FileName}); disp != "" {
			c.Set(fiber.HeaderContentDisposition, disp)
		} else {
			c.Set(fiber.HeaderContentDisposition, "attachment")
		}
		return c.Status(fiber.StatusOK).Send(fc.Data)
	}
}

// GetFileMetadata returns catalog metadata without touching storage.
func GetFileMetadata(svc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		md, err := svc.Metadata(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(md)
	}
}

// GetFileBytes returns metadata and base64-encoded content in one JSON document.
func GetFileBytes(svc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fc, err := svc.Retrieve(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fc)
	}
}

func fileID(c *fiber.Ctx) (string, bool) {
	parsed, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
