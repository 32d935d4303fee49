package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"monohelper/internal/core"
	"monohelper/internal/monobank"
	"monohelper/internal/services"
)

type fakeStore struct {
	mu           sync.Mutex
	accounts     []core.Account
	cards        map[string]core.Card
	jars         map[string]core.Jar
	transactions map[string]core.Transaction
}

func newFakeStore(accounts ...core.Account) *fakeStore {
	return &fakeStore{
		accounts:     accounts,
		cards:        make(map[string]core.Card),
		jars:         make(map[string]core.Jar),
		transactions: make(map[string]core.Transaction),
	}
}

func (f *fakeStore) GetOrCreateCurrency(ctx context.Context, code int) (core.Currency, bool, error) {
	return core.Currency{Code: code, Name: "UAH"}, false, nil
}

func (f *fakeStore) GetOrCreateCategoryMSO(ctx context.Context, mso int) (core.CategoryMSO, error) {
	return core.CategoryMSO{MSO: mso}, nil
}

func (f *fakeStore) UpsertCard(ctx context.Context, c core.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[c.ID] = c
	return nil
}

func (f *fakeStore) UpsertJar(ctx context.Context, j core.Jar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jars[j.ID] = j
	return nil
}

func (f *fakeStore) DeactivateCardsExcept(ctx context.Context, tgID int64, keep []string) error {
	return nil
}

func (f *fakeStore) DeactivateJarsExcept(ctx context.Context, tgID int64, keep []string) error {
	return nil
}

func (f *fakeStore) InsertTransaction(ctx context.Context, t core.Transaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.transactions[t.ID]; exists {
		return false, nil
	}
	f.transactions[t.ID] = t
	return true, nil
}

func (f *fakeStore) ListActiveAccounts(ctx context.Context) ([]core.Account, error) {
	return f.accounts, nil
}

type fakeBank struct {
	mu         sync.Mutex
	failTokens map[string]bool
	infoCalls  []string
}

func (b *fakeBank) GetClientInfo(ctx context.Context, token string) (*monobank.ClientInfo, error) {
	b.mu.Lock()
	b.infoCalls = append(b.infoCalls, token)
	b.mu.Unlock()
	if b.failTokens[token] {
		return nil, errors.New("rate limited")
	}
	return &monobank.ClientInfo{
		Accounts: []monobank.Account{{ID: "card-" + token, CurrencyCode: 980}},
	}, nil
}

func (b *fakeBank) GetStatements(ctx context.Context, token, sourceID string, fromUnix, toUnix int64) ([]monobank.StatementItem, error) {
	return []monobank.StatementItem{
		{ID: "tx-" + sourceID, Time: 1700000000, Amount: -5000, CurrencyCode: 980},
	}, nil
}

func (b *fakeBank) SetWebhook(ctx context.Context, token, webhookURL string) error {
	return nil
}

func TestPoller_PollOnce(t *testing.T) {
	store := newFakeStore(
		core.Account{TgID: 1, Token: "tok1", Active: true},
		core.Account{TgID: 2, Token: "tok2", Active: true},
	)
	bank := &fakeBank{}
	ingest := services.NewIngestService(store, bank, nil)

	p := NewPoller(store, ingest, time.Hour, 2)
	p.pollOnce(context.Background())

	if len(bank.infoCalls) != 2 {
		t.Errorf("client-info calls = %d, want 2", len(bank.infoCalls))
	}
	if len(store.cards) != 2 {
		t.Errorf("upserted cards = %d, want 2", len(store.cards))
	}
	if len(store.transactions) != 2 {
		t.Errorf("ingested transactions = %d, want 2", len(store.transactions))
	}
}

func TestPoller_PollOnce_AccountFailureIsolated(t *testing.T) {
	store := newFakeStore(
		core.Account{TgID: 1, Token: "tok1", Active: true},
		core.Account{TgID: 2, Token: "tok2", Active: true},
	)
	bank := &fakeBank{failTokens: map[string]bool{"tok1": true}}
	ingest := services.NewIngestService(store, bank, nil)

	p := NewPoller(store, ingest, time.Hour, 1)
	p.pollOnce(context.Background())

	// tok1 fails but tok2 is still refreshed.
	if _, ok := store.cards["card-tok2"]; !ok {
		t.Error("second account should be synced despite the first failing")
	}
	if _, ok := store.cards["card-tok1"]; ok {
		t.Error("failed account should not produce cards")
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	ingest := services.NewIngestService(store, &fakeBank{}, nil)
	p := NewPoller(store, ingest, 10*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
