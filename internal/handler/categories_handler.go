package handler

import (
	"net/http"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Categories Handlers
// ============================================================

func listCategoriesHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledgers/{title}/categories")
		defer span.End()

		cats, err := svc.ListCategories(ctx, FamilyIDFromContext(ctx), ledgerTitle(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
	}
}

func createCategoryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ledgers/{title}/categories")
		defer span.End()

		var req domain.CategoryRequest
		if !decodeBody(w, r, &req) {
			return
		}

		cat, err := svc.CreateCategory(ctx, FamilyIDFromContext(ctx), ledgerTitle(r), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, cat)
	}
}

func updateCategoryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/categories/{id}")
		defer span.End()

		var req domain.CategoryRequest
		if !decodeBody(w, r, &req) {
			return
		}

		cat, err := svc.UpdateCategory(ctx, FamilyIDFromContext(ctx), chi.URLParam(r, "id"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}

func deleteCategoryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/categories/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteCategory(ctx, FamilyIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "category deleted", ID: id})
	}
}
