package http

import (
	"monohelper/internal/core"
)

// Response shapes use snake_case field names regardless of how the bank
// spells them on the wire.

type cardResponse struct {
	ID           string   `json:"id"`
	AccountTgID  int64    `json:"account_tg_id"`
	SendID       string   `json:"send_id"`
	CurrencyCode int      `json:"currency_code"`
	CashbackType string   `json:"cashback_type"`
	Balance      int64    `json:"balance"`
	CreditLimit  int64    `json:"credit_limit"`
	MaskedPan    []string `json:"masked_pan"`
	Type         string   `json:"type"`
	IBAN         string   `json:"iban"`
}

func toCardResponse(c core.Card) cardResponse {
	pan := c.MaskedPan
	if pan == nil {
		pan = []string{}
	}
	return cardResponse{
		ID:           c.ID,
		AccountTgID:  c.AccountTgID,
		SendID:       c.SendID,
		CurrencyCode: c.CurrencyCode,
		CashbackType: c.CashbackType,
		Balance:      c.Balance,
		CreditLimit:  c.CreditLimit,
		MaskedPan:    pan,
		Type:         c.Type,
		IBAN:         c.IBAN,
	}
}

type jarResponse struct {
	ID           string `json:"id"`
	AccountTgID  int64  `json:"account_tg_id"`
	SendID       string `json:"send_id"`
	Title        string `json:"title"`
	CurrencyCode int    `json:"currency_code"`
	Balance      int64  `json:"balance"`
	Goal         *int64 `json:"goal"`
	IsBudget     bool   `json:"is_budget"`
	Invested     int64  `json:"invested"`
}

func toJarResponse(j core.Jar) jarResponse {
	return jarResponse{
		ID:           j.ID,
		AccountTgID:  j.AccountTgID,
		SendID:       j.SendID,
		Title:        j.Title,
		CurrencyCode: j.CurrencyCode,
		Balance:      j.Balance,
		Goal:         j.Goal,
		IsBudget:     j.Budget,
		Invested:     j.Invested,
	}
}

type transactionResponse struct {
	ID              string `json:"id"`
	SourceID        string `json:"source_id"`
	Time            int64  `json:"time"`
	Description     string `json:"description"`
	MSO             int    `json:"mso"`
	OriginalMSO     int    `json:"original_mso"`
	Amount          int64  `json:"amount"`
	OperationAmount int64  `json:"operation_amount"`
	CurrencyCode    int    `json:"currency_code"`
	CommissionRate  int64  `json:"commission_rate"`
	CashbackAmount  int64  `json:"cashback_amount"`
	Balance         int64  `json:"balance"`
	Hold            bool   `json:"hold"`
	ReceiptID       string `json:"receipt_id"`
	Comment         string `json:"comment"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		SourceID:        t.SourceID,
		Time:            t.Time,
		Description:     t.Description,
		MSO:             t.MSO,
		OriginalMSO:     t.OriginalMSO,
		Amount:          t.Amount,
		OperationAmount: t.OperationAmount,
		CurrencyCode:    t.CurrencyCode,
		CommissionRate:  t.CommissionRate,
		CashbackAmount:  t.CashbackAmount,
		Balance:         t.Balance,
		Hold:            t.Hold,
		ReceiptID:       t.ReceiptID,
		Comment:         t.Comment,
	}
}

// shrinkTransaction keeps only the requested fields of a serialized
// transaction. Unknown field names are ignored.
func shrinkTransaction(t transactionResponse, fields []string) map[string]any {
	full := map[string]any{
		"id":               t.ID,
		"source_id":        t.SourceID,
		"time":             t.Time,
		"description":      t.Description,
		"mso":              t.MSO,
		"original_mso":     t.OriginalMSO,
		"amount":           t.Amount,
		"operation_amount": t.OperationAmount,
		"currency_code":    t.CurrencyCode,
		"commission_rate":  t.CommissionRate,
		"cashback_amount":  t.CashbackAmount,
		"balance":          t.Balance,
		"hold":             t.Hold,
		"receipt_id":       t.ReceiptID,
		"comment":          t.Comment,
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := full[f]; ok {
			out[f] = v
		}
	}
	return out
}

type categoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	UserDefined bool   `json:"user_defined"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Symbol: c.Symbol, UserDefined: c.UserDefined}
}

type userResponse struct {
	TgID   int64  `json:"tg_id"`
	Name   string `json:"name"`
	Admin  bool   `json:"is_admin"`
	Active bool   `json:"is_active"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{TgID: u.TgID, Name: u.Name, Admin: u.Admin, Active: u.Active}
}

type monthSummaryResponse struct {
	StartBalance int64 `json:"start_balance"`
	Budget       int64 `json:"budget"`
	EndBalance   int64 `json:"end_balance"`
	Spent        int64 `json:"spent"`
}

func toMonthSummaryResponse(s core.MonthSummary) monthSummaryResponse {
	return monthSummaryResponse{
		StartBalance: s.StartBalance,
		Budget:       s.Budget,
		EndBalance:   s.EndBalance,
		Spent:        s.Spent,
	}
}
