package services

import (
	"math"

	"lms/models"

	"gorm.io/gorm"
)

// LeaderboardEntry is one ranked row derived from the coin ledger
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  uint   `json:"user_id"`
	Name    string `json:"name"`
	Balance int    `json:"balance"`
	Level   int    `json:"level"`
}

// LeaderboardService derives ranks and levels from the coin ledger. It is
// strictly read-only relative to the rest of the engine.
type LeaderboardService struct {
	db *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// LevelForBalance maps a coin balance onto a level. The curve widens as
// levels grow: 100 coins for level 2, 400 for level 3, 900 for level 4.
func LevelForBalance(balance int) int {
	if balance <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(balance)/100)) + 1
}

// balanceQuery builds the per-user balance aggregation, optionally scoped to
// one cohort's enrolled users
func (s *LeaderboardService) balanceQuery(cohortID *uint) *gorm.DB {
	q := s.db.Model(&models.CoinTransaction{}).
		Select("coin_transactions.user_id, SUM(coin_transactions.amount) AS balance").
		Group("coin_transactions.user_id")
	if cohortID != nil {
		q = q.Joins("JOIN enrollments ON enrollments.user_id = coin_transactions.user_id").
			Where("enrollments.cohort_id = ? AND enrollments.status <> ?", *cohortID, "WITHDRAWN")
	}
	return q
}

// GetLeaderboard returns the top balances, globally or within one cohort
func (s *LeaderboardService) GetLeaderboard(limit int, cohortID *uint) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	type row struct {
		UserID  uint
		Balance int
	}
	var rows []row
	err := s.balanceQuery(cohortID).Order("balance desc").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		var user models.User
		name := ""
		if err := s.db.Select("name").Where("id = ?", r.UserID).First(&user).Error; err == nil {
			name = user.Name
		}
		entries[i] = LeaderboardEntry{
			Rank:    i + 1,
			UserID:  r.UserID,
			Name:    name,
			Balance: r.Balance,
			Level:   LevelForBalance(r.Balance),
		}
	}
	return entries, nil
}

// GetUserRank returns the user's own entry: 1 + the number of strictly higher
// balances in scope
func (s *LeaderboardService) GetUserRank(userID uint, cohortID *uint) (*LeaderboardEntry, error) {
	balance := 0
	err := s.db.Model(&models.CoinTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	if err != nil {
		return nil, err
	}

	var higher int64
	err = s.db.Table("(?) AS balances", s.balanceQuery(cohortID)).
		Where("balances.balance > ?", balance).
		Count(&higher).Error
	if err != nil {
		return nil, err
	}

	var user models.User
	name := ""
	if err := s.db.Select("name").Where("id = ?", userID).First(&user).Error; err == nil {
		name = user.Name
	}

	return &LeaderboardEntry{
		Rank:    int(higher) + 1,
		UserID:  userID,
		Name:    name,
		Balance: balance,
		Level:   LevelForBalance(balance),
	}, nil
}
