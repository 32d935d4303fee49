package core

import (
	"errors"
	"strings"
)

const (
	SourceCard SourceKind = "card"
	SourceJar  SourceKind = "jar"
)

// CustomMSOBase is the offset used when assigning synthetic MSO codes to
// user-defined categories, so they never collide with real MCC values.
const CustomMSOBase = 999000

// FallbackCategoryName is the category unknown MCC codes map to.
const FallbackCategoryName = "Інше"

// UnknownCurrencyName is assigned to currencies auto-created from
// statements carrying a code we have never seen.
const UnknownCurrencyName = "XXX"

type (
	SourceKind string

	Currency struct {
		Code   int // ISO 4217 numeric code
		Name   string
		Flag   string
		Symbol string
	}

	Category struct {
		ID          int64
		Name        string
		Symbol      string
		UserDefined bool
	}

	CategoryMSO struct {
		ID         int64
		CategoryID int64
		MSO        int
	}

	// Account binds a Telegram user to a Monobank personal token.
	Account struct {
		TgID   int64
		Token  string
		Active bool
	}

	Card struct {
		ID           string // bank-assigned identifier
		AccountTgID  int64
		SendID       string
		CurrencyCode int
		CashbackType string
		Balance      int64
		CreditLimit  int64
		MaskedPan    []string
		Type         string
		IBAN         string
		Active       bool
	}

	Jar struct {
		ID           string
		AccountTgID  int64
		SendID       string
		Title        string
		CurrencyCode int
		Balance      int64
		Goal         *int64
		Budget       bool
		Invested     int64
		Active       bool
	}

	// Transaction is a single statement item of a card or a jar.
	// All monetary fields are in minor units.
	Transaction struct {
		ID              string
		SourceID        string
		SourceKind      SourceKind
		Time            int64 // unix seconds
		Description     string
		MSO             int
		OriginalMSO     int
		Amount          int64
		OperationAmount int64
		CurrencyCode    int
		CommissionRate  int64
		CashbackAmount  int64
		Balance         int64
		Hold            bool
		ReceiptID       string
		Comment         string
	}

	User struct {
		TgID   int64
		Name   string
		Admin  bool
		Active bool
	}

	FamilyInvite struct {
		ID          string
		InviterTgID int64
		MemberTgID  int64
		Status      string
	}
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyToken      = errors.New("empty token")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidTgID     = errors.New("invalid tg id")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrNotFirstOfMonth = errors.New("month is not the first day")
	ErrInvalidInvested = errors.New("invalid invested amount")
)

func (a Account) Validate() error {
	if a.TgID <= 0 {
		return ErrInvalidTgID
	}
	if strings.TrimSpace(a.Token) == "" {
		return ErrEmptyToken
	}
	return nil
}

func (u User) Validate() error {
	if u.TgID <= 0 {
		return ErrInvalidTgID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
