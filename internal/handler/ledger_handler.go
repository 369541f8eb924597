package handler

import (
	"net/http"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Ledgers & view
// ============================================================

func listLedgersHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledgers")
		defer span.End()

		ledgers, err := svc.Ledgers(ctx, FamilyIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ledgers": ledgers})
	}
}

func ledgerViewHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledgers/{title}/view")
		defer span.End()

		month, err := monthParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		title := ledgerTitle(r)
		span.SetAttributes(attribute.String("ledger.title", title), attribute.String("month", month.String()))

		view, err := svc.View(ctx, FamilyIDFromContext(ctx), title, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// ============================================================
// Transactions
// ============================================================

func addTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ledgers/{title}/transactions")
		defer span.End()

		var req domain.TransactionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tx, err := svc.AddTransaction(ctx, FamilyIDFromContext(ctx), ProfileIDFromContext(ctx), ledgerTitle(r), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{id}")
		defer span.End()

		var req domain.TransactionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tx, err := svc.UpdateTransaction(ctx, FamilyIDFromContext(ctx), chi.URLParam(r, "id"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteTransaction(ctx, FamilyIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "transaction deleted", ID: id})
	}
}

// deleteGroupHandler: DELETE /v1/ledgers/{title}/groups?kind=&month=&category_id=|name=
func deleteGroupHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/ledgers/{title}/groups")
		defer span.End()

		month, err := monthParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		q := r.URL.Query()
		sel := domain.GroupSelector{
			Kind:       domain.TxKind(q.Get("kind")),
			CategoryID: q.Get("category_id"),
			Name:       q.Get("name"),
		}

		n, err := svc.DeleteGroup(ctx, FamilyIDFromContext(ctx), ledgerTitle(r), month, sel)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
	}
}
