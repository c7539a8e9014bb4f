package api

import (
	"encoding/json"
	"net/http"

	"github.com/v42069/kafka-payments/internal/products"
	"github.com/v42069/kafka-payments/internal/transfer"
)

type ProductHandlers struct {
	service *products.Service
}

func NewProductHandlers(service *products.Service) *ProductHandlers {
	return &ProductHandlers{service: service}
}

func (h *ProductHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string  `json:"title"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Quantity <= 0 {
		http.Error(w, "title and positive quantity are required", http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateProduct(r.Context(), products.CreateProductRequest{
		Title:    req.Title,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"product_id": id,
	})
}

type TransferHandlers struct {
	service *transfer.Service
}

func NewTransferHandlers(service *transfer.Service) *TransferHandlers {
	return &TransferHandlers{service: service}
}

func (h *TransferHandlers) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID    string  `json:"sender_id"`
		RecipientID string  `json:"recipient_id"`
		Amount      float64 `json:"amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SenderID == "" || req.RecipientID == "" || req.Amount <= 0 {
		http.Error(w, "sender_id, recipient_id and positive amount are required", http.StatusBadRequest)
		return
	}

	ok, err := h.service.Transfer(r.Context(), transfer.Request{
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
	})
	if err != nil {
		// A failed transfer is reported, never silently retried here:
		// re-submission is the caller's decision.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"success": ok,
	})
}
