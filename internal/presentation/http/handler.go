package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	appledger "github.com/bookmesh/bookledger/internal/application/ledger"
	"github.com/bookmesh/bookledger/internal/application/purchasing"
	"github.com/bookmesh/bookledger/internal/domain/catalog"
	"github.com/bookmesh/bookledger/internal/observability"
	"github.com/gorilla/mux"
)

const componentHTTPHandler = "http_server"

// LedgerDirectory resolves a ledger handle to its service. The proxy's
// registry implements it, so one registration covers the proxy and the HTTP
// surface alike.
type LedgerDirectory interface {
	Lookup(handle string) (*appledger.Service, bool)
}

// Handler exposes the ledger and proxy operations over HTTP. Caller identity
// is attested by the identity middleware from the X-Actor-ID header; routes
// themselves perform no authorization, that stays with the ledger service.
type Handler struct {
	ledgers LedgerDirectory
	proxy   *purchasing.Service
	log     observability.Logger
	metrics observability.Metrics
}

func NewHandler(proxy *purchasing.Service, ledgers LedgerDirectory, logger observability.Logger, metrics observability.Metrics) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &Handler{
		ledgers: ledgers,
		proxy:   proxy,
		log:     logger.With(observability.F("component", componentHTTPHandler)),
		metrics: metrics,
	}
}

func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/ledgers/{ledger}/books", h.handleAddBook).Methods(http.MethodPost)
	r.HandleFunc("/ledgers/{ledger}/books", h.handleListBooks).Methods(http.MethodGet)
	r.HandleFunc("/ledgers/{ledger}/books/count", h.handleCount).Methods(http.MethodGet)
	r.HandleFunc("/ledgers/{ledger}/books/{id:[0-9]+}", h.handleGetBook).Methods(http.MethodGet)
	r.HandleFunc("/ledgers/{ledger}/books/{id:[0-9]+}", h.handleUpdateBook).Methods(http.MethodPut)
	r.HandleFunc("/ledgers/{ledger}/books/{id:[0-9]+}", h.handleRemoveBook).Methods(http.MethodDelete)
	r.HandleFunc("/ledgers/{ledger}/books/{id:[0-9]+}/purchase", h.handlePurchase).Methods(http.MethodPost)

	r.HandleFunc("/purchases", h.handleProxyPurchase).Methods(http.MethodPost)
	r.HandleFunc("/purchases/total", h.handleTotalPurchases).Methods(http.MethodGet)

	r.Use(Identity)
	r.Use(Observability(h.log, h.metrics))

	return r
}

type bookResponse struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Price       uint64    `json:"price"`
	Quantity    uint32    `json:"quantity"`
	Removed     bool      `json:"removed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toBookResponse(b *catalog.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		Price:       b.Price,
		Quantity:    b.Quantity,
		Removed:     b.Removed,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type addBookRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Price       uint64 `json:"price"`
	Quantity    uint32 `json:"quantity"`
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}

	var req addBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	id, err := svc.AddBook(r.Context(), appledger.AddBookInput{
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]uint64{"book_id": id})
}

type updateBookRequest struct {
	Price    uint64 `json:"price"`
	Quantity uint32 `json:"quantity"`
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := svc.UpdateBook(r.Context(), id, req.Price, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveBook(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := svc.RemoveBook(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := svc.GetBook(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}

	books, err := svc.ListBooks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}

	count, err := svc.Count(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

type purchaseRequest struct {
	Quantity uint32 `json:"quantity"`
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.ledgerFor(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := svc.Purchase(r.Context(), id, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type proxyPurchaseRequest struct {
	Ledger   string `json:"ledger"`
	BookID   uint64 `json:"book_id"`
	Quantity uint32 `json:"quantity"`
}

func (h *Handler) handleProxyPurchase(w http.ResponseWriter, r *http.Request) {
	var req proxyPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := h.proxy.Purchase(r.Context(), req.Ledger, req.BookID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTotalPurchases(w http.ResponseWriter, r *http.Request) {
	total, err := h.proxy.TotalPurchases(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"total_purchases": total})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ledgerFor(w http.ResponseWriter, r *http.Request) (*appledger.Service, bool) {
	handle := mux.Vars(r)["ledger"]
	svc, ok := h.ledgers.Lookup(handle)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown ledger")
		return nil, false
	}
	return svc, true
}

func bookID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return 0, false
	}
	return id, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appledger.ErrNotOwner):
		writeError(w, http.StatusForbidden, "caller is not the ledger owner")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, purchasing.ErrUnknownLedger):
		writeError(w, http.StatusNotFound, "unknown ledger")
	case errors.Is(err, catalog.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, catalog.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, "quantity must be greater than zero")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
