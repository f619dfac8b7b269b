package services

import (
	"errors"

	"lms/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoinLedger owns the append-only coin transaction log. Balances are always
// computed by summing transactions; there is no stored balance column to
// drift out of sync.
type CoinLedger struct {
	db *gorm.DB
}

func NewCoinLedger(db *gorm.DB) *CoinLedger {
	return &CoinLedger{db: db}
}

// Award records a positive coin transaction inside tx, keyed on
// (user, source, sourceID). Duplicate calls are safe: an existing row with
// the same key short-circuits to a no-op, and a concurrent writer losing the
// race on the unique index is treated the same way. Returns the amount
// actually credited (0 when the reward already exists).
//
// Award must run inside the same transaction that commits the completion
// fact, so a crash never leaves a dangling reward or an unrewarded
// completion.
func (l *CoinLedger) Award(tx *gorm.DB, userID uint, amount int, source models.CoinSource, sourceID uint, reason string, metadata datatypes.JSON) (int, error) {
	if amount <= 0 {
		return 0, nil
	}

	// Existence check inside the transaction
	var existing models.CoinTransaction
	err := tx.Where("user_id = ? AND source = ? AND source_id = ?", userID, source, sourceID).First(&existing).Error
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	txn := models.CoinTransaction{
		UserID:   userID,
		Amount:   amount,
		Source:   source,
		SourceID: sourceID,
		Reason:   reason,
		Metadata: metadata,
	}
	if err := tx.Create(&txn).Error; err != nil {
		// The unique index on (user_id, source, source_id) is the real
		// idempotency guarantee; a concurrent duplicate writer observes
		// "already exists" and treats it as success.
		if isDuplicateKey(err) {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

// Adjust records a manual ledger entry of either sign. The caller supplies a
// reference id that becomes the SourceID, so retrying the same adjustment is a
// no-op while distinct adjustments for the same user stay possible.
func (l *CoinLedger) Adjust(userID uint, amount int, referenceID uint, reason string) (*models.CoinTransaction, error) {
	if amount == 0 {
		return nil, errors.New("adjustment amount must be non-zero")
	}

	txn := models.CoinTransaction{
		UserID:   userID,
		Amount:   amount,
		Source:   models.CoinSourceAdminAdjustment,
		SourceID: referenceID,
		Reason:   reason,
	}
	if err := l.db.Create(&txn).Error; err != nil {
		if isDuplicateKey(err) {
			var existing models.CoinTransaction
			findErr := l.db.Where("user_id = ? AND source = ? AND source_id = ?",
				userID, models.CoinSourceAdminAdjustment, referenceID).First(&existing).Error
			if findErr != nil {
				return nil, findErr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetBalance sums all transactions for a user
func (l *CoinLedger) GetBalance(userID uint) (int, error) {
	var balance int64
	err := l.db.Model(&models.CoinTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	return int(balance), err
}

// GetTransactions returns a user's ledger history, newest first
func (l *CoinLedger) GetTransactions(userID uint, limit int) ([]models.CoinTransaction, error) {
	var txns []models.CoinTransaction
	q := l.db.Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txns).Error
	return txns, err
}
