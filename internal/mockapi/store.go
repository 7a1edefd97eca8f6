package mockapi

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type user struct {
	ID           string
	PasswordHash string
	Profile      domain.Profile
	CreatedAt    time.Time
}

type cartLine struct {
	ProductID string
	Quantity  int
}

// Store keeps the mock API state in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
	users    map[string]*user
	emails   map[string]string
	carts    map[string][]cartLine
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		users:    make(map[string]*user),
		emails:   make(map[string]string),
		carts:    make(map[string][]cartLine),
	}
}

// --- Products ---

// ListProducts returns the catalog in insertion order.
func (s *Store) ListProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out
}

// Product returns the product with id.
func (s *Store) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, productNotFound()
	}
	return p, nil
}

// ReplaceProducts drops the catalog and inserts products, assigning IDs to
// those without one. Cart lines keep pointing at the old IDs.
func (s *Store) ReplaceProducts(products []domain.Product) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]domain.Product, len(products))
	s.order = s.order[:0]
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = newObjectID()
		}
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
		out = append(out, p)
	}
	return out
}

// DeleteProduct removes a product from the catalog.
func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

// --- Users ---

// CreateUser registers a user. Emails are unique, ignoring case.
func (s *Store) CreateUser(name, email, passwordHash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.emails[key]; ok {
		return domain.User{}, apperrors.InvalidInput("User already exists")
	}

	u := &user{
		ID:           newObjectID(),
		PasswordHash: passwordHash,
		Profile:      domain.Profile{Name: name, Email: email},
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.emails[key] = u.ID
	return domain.User{ID: u.ID, Name: name, Email: email}, nil
}

// userByEmail returns a copy of the user registered with email.
func (s *Store) userByEmail(email string) (user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return user{}, false
	}
	return *s.users[id], true
}

func (s *Store) userByID(id string) (user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user{}, apperrors.NotFound("user", id)
	}
	return *u, nil
}

// Profile returns the profile of userID.
func (s *Store) Profile(userID string) (domain.Profile, error) {
	u, err := s.userByID(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return u.Profile, nil
}

// UpdateProfile replaces the profile of userID. Changing the email to one
// held by another user fails.
func (s *Store) UpdateProfile(userID string, p domain.Profile) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.Profile{}, apperrors.NotFound("user", userID)
	}

	oldKey := strings.ToLower(u.Profile.Email)
	newKey := strings.ToLower(p.Email)
	if newKey != oldKey {
		if _, taken := s.emails[newKey]; taken {
			return domain.Profile{}, apperrors.InvalidInput("Email already in use")
		}
		delete(s.emails, oldKey)
		s.emails[newKey] = userID
	}

	u.Profile = p
	return p, nil
}

// SetPasswordHash replaces the password hash of userID.
func (s *Store) SetPasswordHash(userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	u.PasswordHash = hash
	return nil
}

// --- Carts ---

// Cart returns the cart of userID with products populated. Lines whose product
// no longer exists carry only the product ID.
func (s *Store) Cart(userID string) *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartLocked(userID)
}

func (s *Store) cartLocked(userID string) *domain.Cart {
	lines := s.carts[userID]
	cart := &domain.Cart{Items: make([]domain.CartItem, 0, len(lines))}
	for _, line := range lines {
		item := domain.CartItem{ProductID: line.ProductID, Quantity: line.Quantity}
		if p, ok := s.products[line.ProductID]; ok {
			item.Product = &p
		}
		cart.Items = append(cart.Items, item)
	}
	return cart
}

// AddItem adds quantity of productID, merging with an existing line.
func (s *Store) AddItem(userID, productID string, quantity int) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return nil, productNotFound()
	}

	lines := s.carts[userID]
	if i := lineIndex(lines, productID); i >= 0 {
		lines[i].Quantity += quantity
	} else {
		lines = append(lines, cartLine{ProductID: productID, Quantity: quantity})
	}
	s.carts[userID] = lines
	return s.cartLocked(userID), nil
}

// UpdateItem sets the quantity of an existing line.
func (s *Store) UpdateItem(userID, productID string, quantity int) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	i := lineIndex(lines, productID)
	if i < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}
	lines[i].Quantity = quantity
	return s.cartLocked(userID), nil
}

// RemoveItem deletes the line for productID. Removing an absent line is not
// an error.
func (s *Store) RemoveItem(userID, productID string) *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[userID] = slices.DeleteFunc(s.carts[userID], func(l cartLine) bool {
		return l.ProductID == productID
	})
	return s.cartLocked(userID)
}

// ClearCart empties the cart of userID.
func (s *Store) ClearCart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
}

func lineIndex(lines []cartLine, productID string) int {
	return slices.IndexFunc(lines, func(l cartLine) bool { return l.ProductID == productID })
}

func productNotFound() *apperrors.AppError {
	err := apperrors.NotFound("product", "")
	err.Message = "Product not found"
	return err
}

// newObjectID returns a 24 character hex identifier.
func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
