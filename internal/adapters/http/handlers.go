package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopcart/ranking-service/internal/domain"
)

type rankedProductResponse struct {
	ProductID int64   `json:"productId"`
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
}

func toRankedResponse(ranked []domain.RankedProduct) []rankedProductResponse {
	out := make([]rankedProductResponse, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, rankedProductResponse{ProductID: r.ProductID, Rank: r.Rank, Score: r.Score})
	}
	return out
}

// getRankings serves the daily, weekly, or monthly ranking page. Daily reads
// the live store, weekly and monthly read the materialized tables.
func (h *Handler) getRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := dateParam(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "date must be yyyyMMdd")
		return
	}
	page, err := intParam(q.Get("page"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "page must be an integer")
		return
	}
	size, err := intParam(q.Get("size"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "size must be an integer")
		return
	}

	rankingKind := strings.ToUpper(strings.TrimSpace(q.Get("type")))
	if rankingKind == "" || rankingKind == "DAILY" {
		ranked, err := h.service.GetDailyRanking(r.Context(), date, page, size)
		if err != nil {
			status, code, msg := mapDomainError(err)
			writeError(w, status, code, msg)
			return
		}
		writeSuccess(w, http.StatusOK, toRankedResponse(ranked))
		return
	}

	rankingType, err := domain.ParseRankingType(rankingKind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "type must be DAILY, WEEKLY or MONTHLY")
		return
	}
	ranked, err := h.service.GetPeriodRanking(r.Context(), rankingType, date, page, size)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, toRankedResponse(ranked))
}

func (h *Handler) getProductRank(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "product_id must be a positive integer")
		return
	}
	date, err := dateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "date must be yyyyMMdd")
		return
	}

	rank, ok, err := h.service.GetProductRank(r.Context(), date, productID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "product has no ranking for date")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"productId": productID,
		"rank":      rank,
	})
}

type productEventRequest struct {
	ProductID int64 `json:"productId"`
	UserID    int64 `json:"userId"`
}

type stockDepletedRequest struct {
	ProductID      int64 `json:"productId"`
	RemainingStock int   `json:"remainingStock"`
}

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type orderEventRequest struct {
	OrderKey      string             `json:"orderKey"`
	UserID        int64              `json:"userId"`
	OrderID       int64              `json:"orderId"`
	TotalPrice    int64              `json:"totalPrice"`
	DiscountPrice int64              `json:"discountPrice"`
	Items         []orderItemRequest `json:"orderItems"`
}

func (r orderEventRequest) domainItems() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return items
}

func (h *Handler) recordProductLiked(w http.ResponseWriter, r *http.Request) {
	var req productEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	eventID, err := h.service.RecordProductLiked(r.Context(), req.ProductID, req.UserID)
	h.writeStaged(w, eventID, err)
}

func (h *Handler) recordProductUnliked(w http.ResponseWriter, r *http.Request) {
	var req productEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	eventID, err := h.service.RecordProductUnliked(r.Context(), req.ProductID, req.UserID)
	h.writeStaged(w, eventID, err)
}

func (h *Handler) recordProductViewed(w http.ResponseWriter, r *http.Request) {
	var req productEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	eventID, err := h.service.RecordProductViewed(r.Context(), req.ProductID, req.UserID)
	h.writeStaged(w, eventID, err)
}

func (h *Handler) recordStockDepleted(w http.ResponseWriter, r *http.Request) {
	var req stockDepletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	eventID, err := h.service.RecordStockDepleted(r.Context(), req.ProductID, req.RemainingStock)
	h.writeStaged(w, eventID, err)
}

func (h *Handler) recordOrderCreated(w http.ResponseWriter, r *http.Request) {
	var req orderEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	eventID, err := h.service.RecordOrderCreated(r.Context(), req.OrderKey, req.UserID, req.OrderID, req.TotalPrice, req.DiscountPrice, req.domainItems())
	h.writeStaged(w, eventID, err)
}

func (h *Handler) recordOrderPaid(w http.ResponseWriter, r *http.Request) {
	var req orderEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	eventID, err := h.service.RecordOrderPaid(r.Context(), req.OrderKey, req.UserID, req.OrderID, req.TotalPrice, req.domainItems())
	h.writeStaged(w, eventID, err)
}

func (h *Handler) writeStaged(w http.ResponseWriter, eventID string, err error) {
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]any{"eventId": eventID})
}

func dateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return domain.ParseDate(raw)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
