package services

import (
	"fmt"
	"testing"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForBalance(t *testing.T) {
	assert.Equal(t, 1, LevelForBalance(0))
	assert.Equal(t, 1, LevelForBalance(-10))
	assert.Equal(t, 1, LevelForBalance(99))
	assert.Equal(t, 2, LevelForBalance(100))
	assert.Equal(t, 2, LevelForBalance(399))
	assert.Equal(t, 3, LevelForBalance(400))
	assert.Equal(t, 4, LevelForBalance(900))
}

func TestLeaderboardRanksByBalance(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewCoinLedger(db)

	balances := []int{30, 120, 70}
	users := make([]*models.User, len(balances))
	for i, amount := range balances {
		users[i] = createUser(t, db, fmt.Sprintf("student%d@test.local", i))
		_, err := ledger.Adjust(users[i].ID, amount, 1, "Seed")
		require.NoError(t, err)
	}

	board, err := NewLeaderboardService(db).GetLeaderboard(10, nil)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, users[1].ID, board[0].UserID)
	assert.Equal(t, 120, board[0].Balance)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 2, board[0].Level)

	assert.Equal(t, users[2].ID, board[1].UserID)
	assert.Equal(t, users[0].ID, board[2].UserID)
	assert.Equal(t, 3, board[2].Rank)
}

func TestGetUserRank(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewCoinLedger(db)

	low := createUser(t, db, "low@test.local")
	mid := createUser(t, db, "mid@test.local")
	high := createUser(t, db, "high@test.local")
	_, err := ledger.Adjust(low.ID, 10, 1, "Seed")
	require.NoError(t, err)
	_, err = ledger.Adjust(mid.ID, 50, 1, "Seed")
	require.NoError(t, err)
	_, err = ledger.Adjust(high.ID, 200, 1, "Seed")
	require.NoError(t, err)

	boards := NewLeaderboardService(db)

	me, err := boards.GetUserRank(mid.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, me.Rank)
	assert.Equal(t, 50, me.Balance)

	top, err := boards.GetUserRank(high.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, top.Rank)
}

func TestCohortLeaderboardExcludesOutsiders(t *testing.T) {
	db := setupTestDB(t)
	f := seedCohort(t, db)
	f.enroll(t, db)

	ledger := NewCoinLedger(db)
	_, err := ledger.Adjust(f.user.ID, 40, 1, "Seed")
	require.NoError(t, err)

	outsider := createUser(t, db, "outsider@test.local")
	_, err = ledger.Adjust(outsider.ID, 999, 1, "Seed")
	require.NoError(t, err)

	board, err := NewLeaderboardService(db).GetLeaderboard(10, &f.cohort.ID)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, f.user.ID, board[0].UserID)
}
