package repositories

import (
	"database/sql"
	"errors"
	"strings"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type LoyaltyRepo struct {
	DB *sql.DB
}

func (r LoyaltyRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetOrCreate returns the passenger's account, creating an empty BRONZE one
// on first contact. The uniq_loyalty_passenger key absorbs creation races.
func (r LoyaltyRepo) GetOrCreate(passengerID int64) (models.LoyaltyAccount, error) {
	if passengerID <= 0 {
		return models.LoyaltyAccount{}, domain.ValidationError{Field: "passenger_id", Msg: "id tidak valid"}
	}

	acct, err := r.getByPassenger(passengerID)
	if err == nil {
		return acct, nil
	}
	if !domain.IsNotFound(err) {
		return acct, err
	}

	if _, err := r.db().Exec(`
		INSERT INTO loyalty_accounts (passenger_id, points, tier, total_earned)
		VALUES (?,0,?,0)`, passengerID, string(domain.TierBronze),
	); err != nil && !intdb.IsDuplicateKey(err) {
		return acct, err
	}
	return r.getByPassenger(passengerID)
}

func (r LoyaltyRepo) getByPassenger(passengerID int64) (models.LoyaltyAccount, error) {
	var acct models.LoyaltyAccount
	var tier string
	err := r.db().QueryRow(`
		SELECT id, passenger_id, points, tier, total_earned
		FROM loyalty_accounts WHERE passenger_id=?`, passengerID).Scan(
		&acct.ID, &acct.PassengerID, &acct.Points, &tier, &acct.TotalEarned)
	if errors.Is(err, sql.ErrNoRows) {
		return acct, domain.NotFoundError{Resource: "loyalty account", Err: err}
	}
	acct.Tier = domain.Tier(tier)
	return acct, err
}

// Award adds earned points and appends the EARNED ledger entry in one
// transaction; the balance mutation and the ledger line commit or roll back
// together. tierFor recomputes the tier from the new lifetime total.
func (r LoyaltyRepo) Award(accountID, points int64, description string, tierFor func(totalEarned int64) domain.Tier) (models.LoyaltyAccount, error) {
	var acct models.LoyaltyAccount
	if points <= 0 {
		return acct, domain.ValidationError{Field: "points", Msg: "poin harus positif"}
	}

	tx, err := r.db().Begin()
	if err != nil {
		return acct, err
	}
	defer func() { _ = tx.Rollback() }()

	var tier string
	if err := tx.QueryRow(`
		SELECT id, passenger_id, points, tier, total_earned
		FROM loyalty_accounts WHERE id=? FOR UPDATE`, accountID).Scan(
		&acct.ID, &acct.PassengerID, &acct.Points, &tier, &acct.TotalEarned,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return acct, domain.NotFoundError{Resource: "loyalty account", Err: err}
		}
		return acct, err
	}

	acct.Points += points
	acct.TotalEarned += points
	acct.Tier = tierFor(acct.TotalEarned)

	if _, err := tx.Exec(`
		UPDATE loyalty_accounts SET points=?, total_earned=?, tier=? WHERE id=?`,
		acct.Points, acct.TotalEarned, string(acct.Tier), accountID,
	); err != nil {
		return acct, err
	}
	if _, err := tx.Exec(`
		INSERT INTO loyalty_transactions (account_id, kind, points, description)
		VALUES (?,?,?,?)`,
		accountID, models.LoyaltyEarned, points, strings.TrimSpace(description),
	); err != nil {
		return acct, err
	}

	return acct, tx.Commit()
}

// Redeem subtracts points and appends the REDEEMED entry atomically. The
// balance check happens under the row lock, so concurrent redemptions
// cannot overdraw.
func (r LoyaltyRepo) Redeem(accountID, points int64, description string) (models.LoyaltyAccount, error) {
	var acct models.LoyaltyAccount
	if points <= 0 {
		return acct, domain.ValidationError{Field: "points", Msg: "poin harus positif"}
	}

	tx, err := r.db().Begin()
	if err != nil {
		return acct, err
	}
	defer func() { _ = tx.Rollback() }()

	var tier string
	if err := tx.QueryRow(`
		SELECT id, passenger_id, points, tier, total_earned
		FROM loyalty_accounts WHERE id=? FOR UPDATE`, accountID).Scan(
		&acct.ID, &acct.PassengerID, &acct.Points, &tier, &acct.TotalEarned,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return acct, domain.NotFoundError{Resource: "loyalty account", Err: err}
		}
		return acct, err
	}
	acct.Tier = domain.Tier(tier)

	if acct.Points < points {
		return acct, domain.InsufficientPointsError{AccountID: accountID, Requested: points, Balance: acct.Points}
	}

	acct.Points -= points
	if _, err := tx.Exec(`UPDATE loyalty_accounts SET points=? WHERE id=?`, acct.Points, accountID); err != nil {
		return acct, err
	}
	if _, err := tx.Exec(`
		INSERT INTO loyalty_transactions (account_id, kind, points, description)
		VALUES (?,?,?,?)`,
		accountID, models.LoyaltyRedeemed, -points, strings.TrimSpace(description),
	); err != nil {
		return acct, err
	}

	return acct, tx.Commit()
}

func (r LoyaltyRepo) ListTransactions(accountID int64, limit int) ([]models.LoyaltyTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db().Query(`
		SELECT id, account_id, kind, points, description, created_at
		FROM loyalty_transactions WHERE account_id=?
		ORDER BY id DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LoyaltyTransaction{}
	for rows.Next() {
		var t models.LoyaltyTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Kind, &t.Points, &t.Description, &t.CreatedAt); err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
