package services

import (
	"context"
	"fmt"
	"log/slog"

	"monohelper/internal/core"
	"monohelper/internal/log"
	"monohelper/internal/monobank"
)

// BankAPI is the Monobank client surface the ingest service uses.
type BankAPI interface {
	GetClientInfo(ctx context.Context, token string) (*monobank.ClientInfo, error)
	GetStatements(ctx context.Context, token, sourceID string, fromUnix, toUnix int64) ([]monobank.StatementItem, error)
	SetWebhook(ctx context.Context, token, webhookURL string) error
}

// IngestStore is the storage surface for entity and statement ingestion.
type IngestStore interface {
	GetOrCreateCurrency(ctx context.Context, code int) (core.Currency, bool, error)
	GetOrCreateCategoryMSO(ctx context.Context, mso int) (core.CategoryMSO, error)
	UpsertCard(ctx context.Context, c core.Card) error
	UpsertJar(ctx context.Context, j core.Jar) error
	DeactivateCardsExcept(ctx context.Context, tgID int64, keep []string) error
	DeactivateJarsExcept(ctx context.Context, tgID int64, keep []string) error
	InsertTransaction(ctx context.Context, t core.Transaction) (bool, error)
	ListActiveAccounts(ctx context.Context) ([]core.Account, error)
}

// Notifier publishes user-facing notifications. May be nil-free via NoopNotifier.
type Notifier interface {
	Notify(ctx context.Context, tgID int64, kind, text string) error
}

// NoopNotifier drops notifications. Used where no queue is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, tgID int64, kind, text string) error { return nil }

// IngestService pulls bank snapshots and statements into storage.
type IngestService struct {
	store    IngestStore
	bank     BankAPI
	notifier Notifier
}

func NewIngestService(store IngestStore, bank BankAPI, notifier Notifier) *IngestService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &IngestService{store: store, bank: bank, notifier: notifier}
}

// SyncAccount refreshes the cards and jars of one account from client-info.
// Entities missing from the snapshot are deactivated, refreshed ones are
// upserted and reactivated. With withStatements set, the last 30 days of
// statements of every source are ingested as well.
func (s *IngestService) SyncAccount(ctx context.Context, account core.Account, withStatements bool) error {
	info, err := s.bank.GetClientInfo(ctx, account.Token)
	if err != nil {
		return fmt.Errorf("client info for %d: %w", account.TgID, err)
	}

	cardIDs := make([]string, 0, len(info.Accounts))
	for _, a := range info.Accounts {
		cardIDs = append(cardIDs, a.ID)
	}
	jarIDs := make([]string, 0, len(info.Jars))
	for _, j := range info.Jars {
		jarIDs = append(jarIDs, j.ID)
	}

	if err := s.store.DeactivateCardsExcept(ctx, account.TgID, cardIDs); err != nil {
		return err
	}
	if err := s.store.DeactivateJarsExcept(ctx, account.TgID, jarIDs); err != nil {
		return err
	}

	for _, a := range info.Accounts {
		if err := s.ensureCurrency(ctx, account.TgID, a.CurrencyCode); err != nil {
			return err
		}
		card := core.Card{
			ID:           a.ID,
			AccountTgID:  account.TgID,
			SendID:       a.SendID,
			CurrencyCode: a.CurrencyCode,
			CashbackType: a.CashbackType,
			Balance:      a.Balance,
			CreditLimit:  a.CreditLimit,
			MaskedPan:    a.MaskedPan,
			Type:         a.Type,
			IBAN:         a.IBAN,
			Active:       true,
		}
		if err := s.store.UpsertCard(ctx, card); err != nil {
			return err
		}
	}

	for _, j := range info.Jars {
		if err := s.ensureCurrency(ctx, account.TgID, j.CurrencyCode); err != nil {
			return err
		}
		jar := core.Jar{
			ID:           j.ID,
			AccountTgID:  account.TgID,
			SendID:       j.SendID,
			Title:        j.Title,
			CurrencyCode: j.CurrencyCode,
			Balance:      j.Balance,
			Goal:         j.Goal,
			Active:       true,
		}
		if err := s.store.UpsertJar(ctx, jar); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Account synced",
		"account_tg_id", account.TgID,
		"cards", len(info.Accounts),
		"jars", len(info.Jars))

	if !withStatements {
		return nil
	}

	for _, id := range cardIDs {
		if err := s.pullStatements(ctx, account, core.SourceCard, id); err != nil {
			return err
		}
	}
	for _, id := range jarIDs {
		if err := s.pullStatements(ctx, account, core.SourceJar, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *IngestService) pullStatements(ctx context.Context, account core.Account, kind core.SourceKind, sourceID string) error {
	items, err := s.bank.GetStatements(ctx, account.Token, sourceID, 0, 0)
	if err != nil {
		return fmt.Errorf("statements of %s: %w", sourceID, err)
	}

	created := 0
	for _, item := range items {
		isNew, err := s.IngestStatement(ctx, kind, sourceID, item)
		if err != nil {
			return err
		}
		if isNew {
			created++
		}
	}

	fields := log.NewFields().WithOperation(log.OpIngest).WithAccount(account.TgID)
	fields["source_id"] = sourceID
	fields["fetched"] = len(items)
	fields["created"] = created
	slog.InfoContext(ctx, "Statements ingested", fields.ToSlice()...)
	return nil
}

// IngestStatement stores one statement item. The MCC is resolved to a
// category mapping and the currency row is ensured before insert. Returns
// whether the transaction was new.
func (s *IngestService) IngestStatement(ctx context.Context, kind core.SourceKind, sourceID string, item monobank.StatementItem) (bool, error) {
	if _, err := s.store.GetOrCreateCategoryMSO(ctx, item.MCC); err != nil {
		return false, fmt.Errorf("resolve mcc %d: %w", item.MCC, err)
	}
	if item.CurrencyCode != 0 {
		if _, created, err := s.store.GetOrCreateCurrency(ctx, item.CurrencyCode); err != nil {
			return false, fmt.Errorf("resolve currency %d: %w", item.CurrencyCode, err)
		} else if created {
			_ = s.notifier.Notify(ctx, 0, "currency",
				fmt.Sprintf("Unknown currency code %d seen in transaction %s", item.CurrencyCode, item.ID))
		}
	}

	tx := core.Transaction{
		ID:              item.ID,
		SourceID:        sourceID,
		SourceKind:      kind,
		Time:            item.Time,
		Description:     item.Description,
		MSO:             item.MCC,
		OriginalMSO:     item.OriginalMCC,
		Amount:          item.Amount,
		OperationAmount: item.OperationAmount,
		CurrencyCode:    item.CurrencyCode,
		CommissionRate:  item.CommissionRate,
		CashbackAmount:  item.CashbackAmount,
		Balance:         item.Balance,
		Hold:            item.Hold,
		Comment:         item.Comment,
	}
	if kind == core.SourceCard {
		tx.ReceiptID = item.ReceiptID
	}

	isNew, err := s.store.InsertTransaction(ctx, tx)
	if err == nil && isNew {
		slog.DebugContext(ctx, "Transaction stored",
			log.NewFields().WithTransaction(item.ID, sourceID, item.Amount).ToSlice()...)
	}
	return isNew, err
}

// RegisterWebhooks points the bank's push URL at us for every active account.
func (s *IngestService) RegisterWebhooks(ctx context.Context, webhookURL string) error {
	accounts, err := s.store.ListActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts for webhooks: %w", err)
	}

	for _, account := range accounts {
		if err := s.bank.SetWebhook(ctx, account.Token, webhookURL); err != nil {
			slog.ErrorContext(ctx, "Webhook registration failed",
				log.NewFields().WithAccount(account.TgID).WithError(err).ToSlice()...)
			continue
		}
	}
	return nil
}

func (s *IngestService) ensureCurrency(ctx context.Context, tgID int64, code int) error {
	_, created, err := s.store.GetOrCreateCurrency(ctx, code)
	if err != nil {
		return fmt.Errorf("ensure currency %d: %w", code, err)
	}
	if created {
		_ = s.notifier.Notify(ctx, tgID, "currency",
			fmt.Sprintf("Unknown currency code %d on one of your accounts", code))
	}
	return nil
}
