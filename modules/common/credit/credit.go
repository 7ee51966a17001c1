package credit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"carscene-server/modules/common/apperr"
	"carscene-server/modules/common/config"
	"carscene-server/modules/common/model"
	"github.com/supabase-community/supabase-go"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Credit 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// GetBalance - 현재 크레딧 조회. 잔액 행이 없으면 0으로 생성 후 반환.
func (c *Client) GetBalance(ctx context.Context, userID string) (int, error) {
	balance, found, err := c.fetchBalance(userID)
	if err != nil {
		return 0, err
	}
	if !found {
		if err := c.createBalanceRow(userID); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return balance, nil
}

// Debit - 크레딧 차감 (조건부 업데이트로 낙관적 동시성 제어)
// 읽은 잔액이 업데이트 시점까지 그대로일 때만 차감됨.
// 다른 요청이 먼저 차감했으면 0행 업데이트 → CONFLICT 반환.
func (c *Client) Debit(ctx context.Context, userID string, amount int, generationID string, description string) (int, error) {
	log.Printf("💰 Debiting credits: User=%s, Amount=%d", userID, amount)

	observed, found, err := c.fetchBalance(userID)
	if err != nil {
		return 0, err
	}
	if !found {
		// 잔액 행이 없으면 0으로 생성하고 한 번 재시도
		if err := c.createBalanceRow(userID); err != nil {
			return 0, err
		}
		observed, _, err = c.fetchBalance(userID)
		if err != nil {
			return 0, err
		}
	}

	if observed < amount {
		return 0, apperr.Newf(apperr.ErrInsufficientCredits,
			"insufficient credits: have %d, need %d", observed, amount)
	}

	newBalance := observed - amount
	log.Printf("💰 Credit balance: %d → %d (-%d)", observed, newBalance, amount)

	if err := c.compareAndSet(userID, observed, newBalance); err != nil {
		return 0, err
	}

	// 트랜잭션 기록 (실패해도 차감은 유효)
	c.recordTransaction(userID, model.TxDebit, -amount, newBalance, description, generationID)

	log.Printf("✅ Credits debited: %d credits from user %s", amount, userID)
	return newBalance, nil
}

// Credit - 크레딧 환불 (보상 트랜잭션용)
func (c *Client) Credit(ctx context.Context, userID string, amount int, generationID string, description string) (int, error) {
	log.Printf("💰 Refunding credits: User=%s, Amount=%d", userID, amount)

	observed, found, err := c.fetchBalance(userID)
	if err != nil {
		return 0, err
	}
	if !found {
		if err := c.createBalanceRow(userID); err != nil {
			return 0, err
		}
		observed = 0
	}

	newBalance := observed + amount
	log.Printf("💰 Credit balance: %d → %d (+%d)", observed, newBalance, amount)

	if err := c.compareAndSet(userID, observed, newBalance); err != nil {
		return 0, err
	}

	c.recordTransaction(userID, model.TxRefund, amount, newBalance, description, generationID)

	log.Printf("✅ Credits refunded: %d credits to user %s", amount, userID)
	return newBalance, nil
}

// fetchBalance - car_member_credits에서 현재 잔액 조회
func (c *Client) fetchBalance(userID string) (int, bool, error) {
	var rows []model.CreditBalance

	data, _, err := c.supabase.From("car_member_credits").
		Select("available_credits", "", false).
		Eq("user_id", userID).
		Execute()

	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch user credits: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, false, fmt.Errorf("failed to parse credit data: %w", err)
	}

	if len(rows) == 0 {
		return 0, false, nil
	}

	return rows[0].AvailableCredits, true, nil
}

// createBalanceRow - 잔액 행을 0 크레딧으로 생성
func (c *Client) createBalanceRow(userID string) error {
	log.Printf("💳 Creating credit balance row for user %s", userID)

	insertData := map[string]interface{}{
		"user_id":           userID,
		"available_credits": 0,
	}

	_, _, err := c.supabase.From("car_member_credits").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to create credit row: %w", err)
	}
	return nil
}

// compareAndSet - 관측한 잔액이 그대로일 때만 새 잔액으로 업데이트
// 업데이트된 행이 0개면 사이에 다른 요청이 잔액을 바꾼 것 → CONFLICT
func (c *Client) compareAndSet(userID string, observed int, newBalance int) error {
	data, _, err := c.supabase.From("car_member_credits").
		Update(map[string]interface{}{
			"available_credits": newBalance,
			"updated_at":        "now()",
		}, "representation", "").
		Eq("user_id", userID).
		Eq("available_credits", strconv.Itoa(observed)).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update credits: %w", err)
	}

	var updated []json.RawMessage
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("failed to parse update response: %w", err)
	}

	if len(updated) == 0 {
		log.Printf("⚠️  Credit balance changed concurrently for user %s", userID)
		return apperr.New(apperr.ErrConflict, "credit balance changed concurrently, please retry")
	}

	return nil
}

// recordTransaction - car_credit_transactions에 이력 기록 (best-effort)
func (c *Client) recordTransaction(userID, txType string, amount, balanceAfter int, description, generationID string) {
	transaction := model.CreditTransaction{
		UserID:          userID,
		TransactionType: txType,
		Amount:          amount,
		BalanceAfter:    balanceAfter,
		Description:     description,
		GenerationID:    generationID,
	}

	_, _, err := c.supabase.From("car_credit_transactions").
		Insert(transaction, false, "", "", "").
		Execute()

	if err != nil {
		log.Printf("⚠️  Failed to record credit transaction: %v", err)
	}
}
