package handler

import (
	"github.com/gofiber/fiber/v2"

	"docstore/internal/service"
)

// GetAnalysis returns the analysis of a stored file, computing it on first request.
// Files that cannot be analyzed still answer 200 with is_error set.
func GetAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := svc.GetOrCompute(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
