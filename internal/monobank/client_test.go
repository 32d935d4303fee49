package monobank

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", nil)
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", client.baseURL, DefaultBaseURL)
	}
	if client.httpClient == nil || client.httpClient.Timeout == 0 {
		t.Errorf("httpClient = %+v, want default client with a timeout", client.httpClient)
	}
}

func TestClient_GetClientInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/personal/client-info" {
			t.Errorf("path = %s, want /personal/client-info", r.URL.Path)
		}
		if got := r.Header.Get("X-Token"); got != "tok123" {
			t.Errorf("X-Token = %s, want tok123", got)
		}
		fmt.Fprint(w, `{
			"clientId": "abc",
			"name": "Test User",
			"accounts": [{"id":"card1","sendId":"s1","balance":10000,"creditLimit":0,"type":"black","currencyCode":980,"cashbackType":"UAH","maskedPan":["537541******1234"],"iban":"UA123"}],
			"jars": [{"id":"jar1","sendId":"s2","title":"Подушка","currencyCode":980,"balance":50000,"goal":1000000}]
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	info, err := client.GetClientInfo(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("GetClientInfo() error = %v", err)
	}

	if len(info.Accounts) != 1 || info.Accounts[0].ID != "card1" {
		t.Errorf("accounts = %+v, want one account card1", info.Accounts)
	}
	if info.Accounts[0].CurrencyCode != 980 {
		t.Errorf("currencyCode = %d, want 980", info.Accounts[0].CurrencyCode)
	}
	if len(info.Jars) != 1 || info.Jars[0].Title != "Подушка" {
		t.Errorf("jars = %+v, want one jar", info.Jars)
	}
	if info.Jars[0].Goal == nil || *info.Jars[0].Goal != 1000000 {
		t.Errorf("goal = %v, want 1000000", info.Jars[0].Goal)
	}
}

func TestClient_GetStatements(t *testing.T) {
	var requestedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		fmt.Fprint(w, `[{"id":"tx1","time":1700000000,"description":"Кава","mcc":5814,"originalMcc":5814,"hold":false,"amount":-4500,"operationAmount":-4500,"currencyCode":980,"commissionRate":0,"cashbackAmount":45,"balance":95500}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	items, err := client.GetStatements(context.Background(), "tok", "card1", 1700000000, 1700003600)
	if err != nil {
		t.Fatalf("GetStatements() error = %v", err)
	}

	if requestedPath != "/personal/statement/card1/1700000000/1700003600" {
		t.Errorf("path = %s, want explicit window", requestedPath)
	}
	if len(items) != 1 || items[0].ID != "tx1" {
		t.Fatalf("items = %+v, want one tx1", items)
	}
	if items[0].Amount != -4500 {
		t.Errorf("amount = %d, want -4500", items[0].Amount)
	}
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errorDescription":"Too many requests"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.GetClientInfo(context.Background(), "tok")
	if !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("GetClientInfo() error = %v, want ErrTooManyRequests", err)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errorDescription":"period must be no more than 31 days"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.GetStatements(context.Background(), "tok", "card1", 0, 0)
	if err == nil {
		t.Fatal("GetStatements() error = nil, want API error")
	}
	if got := err.Error(); got != "monobank: period must be no more than 31 days" {
		t.Errorf("error = %q, want bank errorDescription surfaced", got)
	}
}

func TestClient_SetWebhook(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/personal/webhook" {
			t.Errorf("request = %s %s, want POST /personal/webhook", r.Method, r.URL.Path)
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if err := client.SetWebhook(context.Background(), "tok", "https://example.com/monobank/webhook"); err != nil {
		t.Fatalf("SetWebhook() error = %v", err)
	}

	want := `{"webHookUrl":"https://example.com/monobank/webhook?token=tok"}`
	if gotBody != want {
		t.Errorf("body = %s, want %s", gotBody, want)
	}
}
