package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/models"
)

const defaultActiveLimit = 50

type OrderReader interface {
	ListActive(ctx context.Context, limit int) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type UserLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, userIDs []int64, text string) (int, error)
}

// Server is the operator HTTP API. It only reads orders.
type Server struct {
	addr        string
	username    string
	password    string
	log         *zap.Logger
	orders      OrderReader
	users       UserLister
	broadcaster Broadcaster
	router      *chi.Mux
}

func NewServer(addr, username, password string, log *zap.Logger, orders OrderReader, users UserLister, broadcaster Broadcaster) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:        addr,
		username:    username,
		password:    password,
		log:         log,
		orders:      orders,
		users:       users,
		broadcaster: broadcaster,
		router:      r,
	}
	r.Get("/healthz", s.handleHealth)
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Get("/orders", s.handleListOrders)
		protected.Get("/orders/active", s.handleActiveOrders)
		protected.Get("/stats", s.handleStats)
		protected.Post("/broadcast", s.handleBroadcast)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin shutdown error", zap.Error(err))
		}
	}()

	s.log.Info("admin api listening", zap.String("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type orderView struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Kind          string          `json:"kind"`
	Recipient     string          `json:"recipient,omitempty"`
	Amount        string          `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Status        string          `json:"status"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	Details       json.RawMessage `json:"details"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toView(order models.Order) (orderView, error) {
	details, err := models.EncodeDetails(order.Details, order.Proof)
	if err != nil {
		return orderView{}, err
	}
	return orderView{
		ID:            order.ID,
		UserID:        order.UserID,
		Kind:          string(order.Kind),
		Recipient:     order.Recipient,
		Amount:        order.Amount.String(),
		PaymentMethod: string(order.PaymentMethod),
		Status:        string(order.Status),
		InvoiceID:     order.InvoiceID,
		Details:       json.RawMessage(details),
		CreatedAt:     order.CreatedAt,
	}, nil
}

func (s *Server) writeOrders(w http.ResponseWriter, orders []models.Order) {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		v, err := toView(order)
		if err != nil {
			s.internalError(w, fmt.Errorf("encode order %d: %w", order.ID, err))
			return
		}
		views = append(views, v)
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.ListAll(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeOrders(w, orders)
}

func (s *Server) handleActiveOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultActiveLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	orders, err := s.orders.ListActive(r.Context(), limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeOrders(w, orders)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.orders.Stats(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type broadcastRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		s.internalError(w, fmt.Errorf("list user ids: %w", err))
		return
	}
	sent, err := s.broadcaster.Broadcast(ctx, ids, req.Message)
	if err != nil {
		s.log.Warn("broadcast interrupted", zap.Int("sent", sent), zap.Error(err))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sent":  sent,
		"total": len(ids),
	})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="digistore"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("admin handler error", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
