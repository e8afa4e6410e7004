package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/vault-ledger-system/internal/config"
	kafkaevents "github.com/sheikh-saqib/vault-ledger-system/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/vault-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/vault-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/sheikh-saqib/vault-ledger-system/internal/storage/memory"
	"github.com/sheikh-saqib/vault-ledger-system/internal/storage/postgres"
	"github.com/sheikh-saqib/vault-ledger-system/internal/storage/sqlite"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafkaevents.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	ledgerService := ledger.NewLedger(store, publisher)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "name is a mandatory field", http.StatusBadRequest)
			return
		}

		if err := ledgerService.CreateAccount(r.Context(), req.Name); err != nil {
			writeLedgerError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"Created Account"}`))
	})

	mux.HandleFunc("/accounts/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name is a mandatory field", http.StatusBadRequest)
			return
		}

		balance, err := ledgerService.GetBalance(r.Context(), name)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, struct {
			Name    string          `json:"name"`
			Balance decimal.Decimal `json:"balance"`
		}{Name: name, Balance: balance})
	})

	mux.HandleFunc("/accounts/opened", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name is a mandatory field", http.StatusBadRequest)
			return
		}

		openedAt, err := ledgerService.GetOpenTime(r.Context(), name)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, struct {
			Name     string `json:"name"`
			OpenedAt int64  `json:"opened_at"`
		}{Name: name, OpenedAt: openedAt})
	})

	mux.HandleFunc("/ranking", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		ranking, err := ledgerService.GetRanking(r.Context())
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, ranking)
	})

	mux.HandleFunc("/logs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		logs, err := ledgerService.GetLogs(r.Context())
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, logs)
	})

	mux.HandleFunc("/give", handleAdjustment(func(ctx context.Context, req adjustmentRequest) error {
		return ledgerService.Give(ctx, req.Name, req.Amount, req.Operator)
	}))

	mux.HandleFunc("/take", handleAdjustment(func(ctx context.Context, req adjustmentRequest) error {
		return ledgerService.Take(ctx, req.Name, req.Amount, req.Operator)
	}))

	mux.HandleFunc("/set", handleAdjustment(func(ctx context.Context, req adjustmentRequest) error {
		return ledgerService.Set(ctx, req.Name, req.Amount, req.Operator)
	}))

	mux.HandleFunc("/transfer", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Debit  string          `json:"debit"`
			Credit string          `json:"credit"`
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := ledgerService.Transfer(r.Context(), req.Debit, req.Credit, req.Amount); err != nil {
			writeLedgerError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"Transferred"}`))
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting server on %s (storage: %s)", cfg.HTTPAddr, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openStore(cfg config.Config) (interfaces.LedgerStore, error) {
	switch cfg.StorageDriver {
	case "memory":
		return memory.NewMemoryLedgerStore(), nil
	case "postgres":
		return postgres.Open(cfg.PostgresDSN)
	default:
		return sqlite.Open(cfg.SQLitePath)
	}
}

type adjustmentRequest struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Operator string          `json:"operator"`
}

// handleAdjustment builds the shared handler for give/take/set, which
// only differ in the ledger call they dispatch to.
func handleAdjustment(apply func(ctx context.Context, req adjustmentRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req adjustmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is a mandatory field", http.StatusBadRequest)
			return
		}

		if err := apply(r.Context(), req); err != nil {
			writeLedgerError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"Applied"}`))
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
