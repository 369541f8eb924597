package handler

import (
	"net/http"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Credit items
// ============================================================

func createCreditItemHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ledgers/{title}/credit-items")
		defer span.End()

		var req domain.CreditItemRequest
		if !decodeBody(w, r, &req) {
			return
		}

		item, err := svc.CreateCreditItem(ctx, FamilyIDFromContext(ctx), ledgerTitle(r), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func updateCreditItemHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/credit-items/{id}")
		defer span.End()

		var req domain.CreditItemRequest
		if !decodeBody(w, r, &req) {
			return
		}

		item, err := svc.UpdateCreditItem(ctx, FamilyIDFromContext(ctx), chi.URLParam(r, "id"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func deleteCreditItemHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/credit-items/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteCreditItem(ctx, FamilyIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "credit item deleted", ID: id})
	}
}

// ============================================================
// Debts
// ============================================================

func createDebtHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ledgers/{title}/debts")
		defer span.End()

		var req domain.DebtRequest
		if !decodeBody(w, r, &req) {
			return
		}

		debt, err := svc.CreateDebt(ctx, FamilyIDFromContext(ctx), ledgerTitle(r), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, debt)
	}
}

func updateDebtHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/debts/{id}")
		defer span.End()

		var req domain.DebtRequest
		if !decodeBody(w, r, &req) {
			return
		}

		debt, err := svc.UpdateDebt(ctx, FamilyIDFromContext(ctx), chi.URLParam(r, "id"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, debt)
	}
}

func deleteDebtHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/debts/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteDebt(ctx, FamilyIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "debt deleted", ID: id})
	}
}
