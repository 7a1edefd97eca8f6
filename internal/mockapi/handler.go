package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// Handler serves the storefront API endpoints.
type Handler struct {
	store  *Store
	tokens *TokenManager
	events *Events
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(store *Store, tokens *TokenManager, events *Events, log *slog.Logger) *Handler {
	if events == nil {
		events = NewEvents(nil, log)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{store: store, tokens: tokens, events: events, logger: log, now: time.Now}
}

// --- Request DTOs ---

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type updateItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type profileRequest struct {
	Name           string         `json:"name" validate:"required,max=100"`
	Email          string         `json:"email" validate:"required,email"`
	Phone          string         `json:"phone" validate:"max=30"`
	DateOfBirth    string         `json:"dateOfBirth"`
	Bio            string         `json:"bio" validate:"max=500"`
	ProfilePicture string         `json:"profilePicture"`
	Address        domain.Address `json:"address"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type seedResponse struct {
	Message  string           `json:"message"`
	Products []domain.Product `json:"products"`
}

// --- Auth ---

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	u, err := h.store.CreateUser(strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), hash)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writeAuth(w, r, http.StatusCreated, u)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	u, ok := h.store.userByEmail(strings.TrimSpace(req.Email))
	if !ok || !checkPassword(u.PasswordHash, req.Password) {
		httputil.WriteError(w, r, apperrors.InvalidInput("Invalid credentials"), h.logger)
		return
	}

	h.writeAuth(w, r, http.StatusOK, domain.User{ID: u.ID, Name: u.Profile.Name, Email: u.Profile.Email})
}

func (h *Handler) writeAuth(w http.ResponseWriter, r *http.Request, status int, u domain.User) {
	token, err := h.tokens.Generate(u)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	logger.FromContext(r.Context()).InfoContext(r.Context(), "user signed in", slog.String("user_id", u.ID))
	httputil.WriteJSON(w, status, domain.AuthResult{Token: token, User: u})
}

// --- Products ---

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.store.ListProducts())
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Product(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// SeedProducts handles POST /api/products/seed. It replaces the catalog with
// the sample products.
func (h *Handler) SeedProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.ReplaceProducts(SeedCatalog())
	logger.FromContext(r.Context()).InfoContext(r.Context(), "catalog seeded", slog.Int("count", len(products)))
	httputil.WriteJSON(w, http.StatusCreated, seedResponse{Message: "Products seeded successfully", Products: products})
}

// --- Cart ---

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.store.Cart(middleware.UserIDFromContext(r.Context())))
}

// AddItem handles POST /api/cart/add. A missing quantity means 1.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.store.AddItem(middleware.UserIDFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/cart/update.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.store.UpdateItem(middleware.UserIDFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/{productId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart := h.store.RemoveItem(middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "productId"))
	httputil.WriteJSON(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/cart/clear.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	h.store.ClearCart(userID)
	h.events.CartCleared(r.Context(), userID)
	httputil.WriteMessage(w, http.StatusOK, "Cart cleared")
}

// --- Payment ---

// PaymentMethods handles GET /api/payment/methods.
func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, PaymentMethods())
}

// ProcessPayment handles POST /api/payment/process. Declined and invalid
// cards answer 400 with {success:false, message}.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}
	if len(req.Items) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("No items to pay for"), h.logger)
		return
	}
	if !req.Amount.IsPositive() {
		httputil.WriteError(w, r, apperrors.InvalidInput("Amount must be positive"), h.logger)
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)
	userID := middleware.UserIDFromContext(ctx)

	order, decline := charge(req, h.now())
	if decline != nil {
		log.WarnContext(ctx, "payment declined",
			slog.String("reason", decline.Message),
			slog.String("amount", req.Amount.StringFixed(2)),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, decline)
		return
	}

	log.InfoContext(ctx, "payment processed",
		slog.String("order_id", order.OrderID),
		slog.String("transaction_id", order.TransactionID),
		slog.String("amount", order.Amount.StringFixed(2)),
	)
	h.events.PaymentProcessed(ctx, userID, order)
	httputil.WriteJSON(w, http.StatusOK, order)
}

// --- Profile ---

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profile(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	saved, err := h.store.UpdateProfile(middleware.UserIDFromContext(r.Context()), domain.Profile{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          req.Phone,
		DateOfBirth:    req.DateOfBirth,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		Address:        req.Address,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, saved)
}

// ChangePassword handles PUT /api/profile/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	u, err := h.store.userByID(userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !checkPassword(u.PasswordHash, req.CurrentPassword) {
		httputil.WriteError(w, r, apperrors.InvalidInput("Current password is incorrect"), h.logger)
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	if err := h.store.SetPasswordHash(userID, hash); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Password updated successfully")
}
