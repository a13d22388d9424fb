// Package server exposes the receipt pipeline as a small JSON HTTP API,
// consumed by the web frontend.
package server

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/service"
)

// Server holds the HTTP handlers over one Service.
type Server struct {
	svc *service.Service
	log logging.Logger
}

// New creates a Server.
func New(svc *service.Service, log logging.Logger) *Server {
	return &Server{svc: svc, log: log}
}

// Handler builds the route table with CORS applied to every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/parse-receipt", s.handleParseReceipt)
	mux.HandleFunc("POST /api/save-receipt", s.handleSaveReceipt)
	mux.HandleFunc("POST /api/receipts", s.handleReceipts)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	return withCORS(mux)
}

// ListenAndServe runs the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.WithField("addr", addr).Info("Receipt API listening")
	return http.ListenAndServe(addr, s.Handler())
}

// withCORS allows the browser frontend to call the API from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Receipt API is running",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	state := s.svc.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"zdravie": state.Health,
		"stastie": state.Happiness,
		"history": state.History,
	})
}

func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Receipt text is required")
		return
	}

	s.log.WithField("chars", len(req.Text)).Info("parse-receipt")
	items, health, happiness := s.svc.ParseReceipt(r.Context(), req.Text)
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "No items could be parsed from the receipt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"stat_changes": map[string]int{
			"health":    health,
			"happiness": happiness,
		},
	})
}

func (s *Server) handleSaveReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items   []models.Item `json:"items"`
		RawText string        `json:"raw_text"`
		Date    string        `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "No items to save")
		return
	}

	s.log.WithField("items", len(req.Items)).Info("save-receipt")
	result, err := s.svc.SaveReceipt(r.Context(), req.Items, req.RawText, parseDate(req.Date))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"items_saved": result.ItemsSaved,
		"stat_changes": map[string]int{
			"health":    result.HealthDelta,
			"happiness": result.HappinessDelta,
		},
		"new_stats": map[string]int{
			"zdravie": result.State.Health,
			"stastie": result.State.Happiness,
		},
	})
}

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 500
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	records, err := s.svc.Records(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": groupByReceipt(records),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	answer, count, err := s.svc.Chat(r.Context(), req.Question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":      answer,
		"items_count": count,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": s.svc.Taxonomy().Categories(),
	})
}

// receiptGroup is one receipt reassembled from its stored items.
type receiptGroup struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Items    []receiptLine   `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Category string          `json:"category"`
}

type receiptLine struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category"`
}

// groupByReceipt folds flat records back into receipts keyed by their source
// text, preserving first-seen order.
func groupByReceipt(records []models.StoredRecord) []*receiptGroup {
	byText := make(map[string]*receiptGroup)
	var order []*receiptGroup

	for _, rec := range records {
		group, ok := byText[rec.ReceiptText]
		if !ok {
			group = &receiptGroup{
				ID:       receiptID(rec.ReceiptText),
				Date:     rec.DateTime.Format(time.RFC3339),
				Total:    decimal.Zero,
				Category: rec.Category,
			}
			byText[rec.ReceiptText] = group
			order = append(order, group)
		}
		group.Items = append(group.Items, receiptLine{
			Name:     rec.Product,
			Price:    rec.Price,
			Quantity: 1,
			Category: rec.Category,
		})
		group.Total = group.Total.Add(rec.Price)
	}

	if order == nil {
		order = []*receiptGroup{}
	}
	return order
}

func receiptID(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%d", h.Sum64())
}

// parseDate accepts an RFC 3339 timestamp or a naive ISO timestamp (treated
// as UTC); anything else resolves to the current time.
func parseDate(value string) time.Time {
	if value == "" {
		return time.Now()
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC); err == nil {
		return ts
	}
	return time.Now()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
