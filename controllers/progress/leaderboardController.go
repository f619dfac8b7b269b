package progressController

import (
	"lms/database"
	"lms/middleware"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// GetLeaderboard returns ranked coin balances plus the caller's own rank.
// scope=class narrows it to one cohort via ?cohort_id.
func GetLeaderboard(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	limit := c.QueryInt("limit", 10)
	scope := c.Query("scope", "global")

	var cohortID *uint
	if scope == "class" {
		id := uint(c.QueryInt("cohort_id", 0))
		if id == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "cohort_id is required for class scope!", nil)
		}
		cohortID = &id
	}

	board := services.NewLeaderboardService(database.Database.Db)

	entries, err := board.GetLeaderboard(limit, cohortID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	me, err := board.GetUserRank(userID, cohortID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Leaderboard fetched!", fiber.Map{
		"scope":       scope,
		"leaderboard": entries,
		"me":          me,
	})
}

// GetCoinHistory returns the caller's ledger transactions
func GetCoinHistory(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	limit := c.QueryInt("limit", 50)

	ledger := services.NewCoinLedger(database.Database.Db)

	balance, err := ledger.GetBalance(userID)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	txns, err := ledger.GetTransactions(userID, limit)
	if err != nil {
		return middleware.DomainErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coin history fetched!", fiber.Map{
		"balance":      balance,
		"level":        services.LevelForBalance(balance),
		"transactions": txns,
	})
}
