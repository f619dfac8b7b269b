package cohortValidator

import (
	"strconv"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

func CohortID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("cohortId"))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid cohortId!", nil)
		}
		c.Locals("cohortID", uint(id))
		return c.Next()
	}
}

func CohortList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `query:"page"`
			Limit *int `query:"limit"`
		})

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query params!", nil)
		}

		page := 1
		limit := 10
		if reqData.Page != nil && *reqData.Page > 0 {
			page = *reqData.Page
		}
		if reqData.Limit != nil && *reqData.Limit > 0 && *reqData.Limit <= 100 {
			limit = *reqData.Limit
		}

		c.Locals("page", page)
		c.Locals("limit", limit)
		return c.Next()
	}
}
