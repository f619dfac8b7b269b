package cohortRoutes

import (
	controllers "lms/controllers/cohort"
	"lms/middleware"
	cohortValidators "lms/validators/cohort"
	progressValidators "lms/validators/progress"

	"github.com/gofiber/fiber/v2"
)

// SetupCohortRoutes sets up cohort browsing, enrollment and week content
func SetupCohortRoutes(app *fiber.App) {
	cohortGroup := app.Group("/cohort")

	cohortGroup.Get("/list", middleware.JWTMiddleware, cohortValidators.CohortList(), controllers.CohortList)
	cohortGroup.Get("/:cohortId", middleware.JWTMiddleware, cohortValidators.CohortID(), controllers.GetCohort)

	cohortGroup.Post("/:cohortId/enroll", middleware.JWTMiddleware, middleware.RequireRole("STUDENT"), cohortValidators.CohortID(), controllers.Enroll)
	cohortGroup.Post("/:cohortId/withdraw", middleware.JWTMiddleware, middleware.RequireRole("STUDENT"), cohortValidators.CohortID(), controllers.Withdraw)
	cohortGroup.Post("/:cohortId/certificate/request", middleware.JWTMiddleware, middleware.RequireRole("STUDENT"), cohortValidators.CohortID(), controllers.RequestCertificate)

	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.MyEnrollments)

	weekGroup := app.Group("/week")
	weekGroup.Get("/:weekId/content", middleware.JWTMiddleware, progressValidators.WeekID(), controllers.GetWeekContent)
}
