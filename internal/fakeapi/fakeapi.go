// Package fakeapi is an in-memory marketplace API for tests. It serves the same routes and
// payloads as the real API, including its FastAPI style error bodies.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/farm-admin/auth"
	"github.com/jrsteele09/farm-admin/deliveries"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/products"
	"github.com/jrsteele09/farm-admin/users"
)

const (
	DefaultOTP      = "123456"
	DefaultUsername = "admin"
	DefaultPassword = "secret"
)

type Server struct {
	*httptest.Server

	lock       sync.Mutex
	otp        string
	echoOTP    bool
	signer     *tokenSigner
	tokens     map[string]string // access token to user id
	users      map[string]*users.User
	products   map[string]products.Product
	orders     map[string]orders.Order
	deliveries map[string]deliveries.Delivery // keyed by order id
	calls      map[string]int
	sentOTP    map[string]string // phone to code

	usersListStatus int
	legacyProducts  bool
}

func New() *Server {
	s := &Server{
		otp:        DefaultOTP,
		echoOTP:    true,
		signer:     newTokenSigner(),
		tokens:     make(map[string]string),
		users:      make(map[string]*users.User),
		products:   make(map[string]products.Product),
		orders:     make(map[string]orders.Order),
		deliveries: make(map[string]deliveries.Delivery),
		calls:      make(map[string]int),
		sentOTP:    make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/send-otp", s.sendOTP)
	mux.HandleFunc("POST /auth/verify-otp", s.verifyOTP)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("GET /products", s.authed(s.listProducts))
	mux.HandleFunc("POST /products", s.authed(s.createProduct))
	mux.HandleFunc("GET /products/{id}", s.authed(s.getProduct))
	mux.HandleFunc("PATCH /products/{id}", s.authed(s.updateProduct))
	mux.HandleFunc("DELETE /products/{id}", s.authed(s.deleteProduct))
	mux.HandleFunc("GET /orders", s.authed(s.listOrders))
	mux.HandleFunc("GET /orders/{id}", s.authed(s.getOrder))
	mux.HandleFunc("PATCH /orders/{id}", s.authed(s.updateOrder))
	mux.HandleFunc("GET /deliveries/order/{id}", s.authed(s.getDelivery))
	mux.HandleFunc("PATCH /deliveries/order/{id}", s.authed(s.updateDelivery))
	mux.HandleFunc("GET /users/me", s.authed(s.me))
	mux.HandleFunc("PATCH /users/me", s.authed(s.updateMe))
	mux.HandleFunc("GET /users", s.authed(s.listUsers))

	s.Server = httptest.NewServer(s.count(mux))
	return s
}

// EchoOTP controls whether send-otp returns the code in its debug block.
func (s *Server) EchoOTP(echo bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.echoOTP = echo
}

// FailUsersList makes GET /users answer status instead of a listing.
func (s *Server) FailUsersList(status int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.usersListStatus = status
}

// LegacyProducts makes products carry is_available instead of is_active.
func (s *Server) LegacyProducts() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.legacyProducts = true
}

// Calls is the number of requests received for method and path, for example "GET /products".
func (s *Server) Calls(method, path string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls[method+" "+path]
}

// SentOTP is the last code issued for phone.
func (s *Server) SentOTP(phone string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sentOTP[phone]
}

// IssueToken signs in a new admin and returns its access token.
func (s *Server) IssueToken() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	user := s.newUserLocked("+998900000000", users.RoleAdmin)
	return s.issueLocked(user)
}

// RevokeTokens invalidates every issued token, so the next call gets a 401.
func (s *Server) RevokeTokens() {
	s.lock.Lock()
	defer s.lock.Unlock()
	clear(s.tokens)
}

func (s *Server) AddProduct(p products.Product) products.Product {
	s.lock.Lock()
	defer s.lock.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
		p.UpdatedAt = p.CreatedAt
	}
	s.products[p.ID] = p
	return p
}

func (s *Server) AddOrder(o orders.Order) orders.Order {
	s.lock.Lock()
	defer s.lock.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
		o.UpdatedAt = o.CreatedAt
	}
	if o.Items == nil {
		o.Items = []orders.Item{}
	}
	s.orders[o.ID] = o
	return o
}

func (s *Server) AddDelivery(d deliveries.Delivery) deliveries.Delivery {
	s.lock.Lock()
	defer s.lock.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = deliveries.StatusPending
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now()
		d.UpdatedAt = d.CreatedAt
	}
	s.deliveries[d.OrderID] = d
	return d
}

func (s *Server) AddUser(u users.User) users.User {
	s.lock.Lock()
	defer s.lock.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = &u
	return u
}

func (s *Server) Product(id string) (products.Product, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Server) Order(id string) (orders.Order, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.lock.Lock()
		userID, known := s.tokens[token]
		s.lock.Unlock()
		if !ok || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.SendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	phone, err := auth.NormalizePhone(req.PhoneNumber)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Unsupported phone number format")
		return
	}

	s.lock.Lock()
	s.sentOTP[phone] = s.otp
	resp := auth.SendOTPResponse{Message: "OTP sent"}
	if s.echoOTP {
		resp.Debug = &auth.DebugInfo{OTP: s.otp}
	}
	s.lock.Unlock()
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	code, ok := s.sentOTP[req.PhoneNumber]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "OTP not found")
		return
	}
	if code != req.Code {
		writeDetail(w, http.StatusBadRequest, "Invalid OTP code")
		return
	}
	delete(s.sentOTP, req.PhoneNumber)

	role := req.Role
	if role == "" {
		role = users.RoleFarmer
	}
	user := s.newUserLocked(req.PhoneNumber, role)
	writeJSON(w, http.StatusOK, s.authResponseLocked(user))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.PasswordLogin
	if !decode(w, r, &req) {
		return
	}
	if req.Username != DefaultUsername || req.Password != DefaultPassword {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	user := s.newUserLocked("+998900000001", users.RoleAdmin)
	writeJSON(w, http.StatusOK, s.authResponseLocked(user))
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request, _ string) {
	q := r.URL.Query()
	limit, offset := paging(r)

	s.lock.Lock()
	var items []products.Product
	for _, p := range s.products {
		if c := q.Get("category"); c != "" && string(p.Category) != c {
			continue
		}
		if f := q.Get("farmer_id"); f != "" && p.FarmerID != f {
			continue
		}
		if term := q.Get("search"); term != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
			continue
		}
		if minPrice, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil && p.Price < minPrice {
			continue
		}
		if maxPrice, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil && p.Price > maxPrice {
			continue
		}
		items = append(items, p)
	}
	s.lock.Unlock()

	slices.SortFunc(items, func(a, b products.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	total := len(items)
	page := window(items, limit, offset)

	encoded := make([]any, 0, len(page))
	for _, p := range page {
		encoded = append(encoded, s.encodeProduct(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": encoded, "total": total, "limit": limit, "offset": offset})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, userID string) {
	var req products.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Price <= 0 || req.Quantity < 0 || !req.Category.Valid() {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid product")
		return
	}
	ts := now()
	p := products.Product{
		ID:          uuid.NewString(),
		FarmerID:    userID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		ImageURL:    req.ImageURL,
		IsActive:    true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	s.lock.Lock()
	s.products[p.ID] = p
	s.lock.Unlock()
	writeJSON(w, http.StatusCreated, s.encodeProduct(p))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	p, ok := s.products[r.PathValue("id")]
	s.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, s.encodeProduct(p))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, _ string) {
	var req products.UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	s.lock.Lock()
	p, ok := s.products[r.PathValue("id")]
	if !ok {
		s.lock.Unlock()
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.ImageURL != nil {
		p.ImageURL = req.ImageURL
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedAt = now()
	s.products[p.ID] = p
	s.lock.Unlock()
	writeJSON(w, http.StatusOK, s.encodeProduct(p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := r.PathValue("id")
	if _, ok := s.products[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	for _, o := range s.orders {
		for _, item := range o.Items {
			if item.ProductID == id && o.Status != orders.StatusDelivered && o.Status != orders.StatusCancelled {
				writeDetail(w, http.StatusConflict, "Cannot delete product with active orders")
				return
			}
		}
	}
	delete(s.products, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request, _ string) {
	q := r.URL.Query()
	limit, offset := paging(r)

	s.lock.Lock()
	var items []orders.Order
	for _, o := range s.orders {
		if st := q.Get("status"); st != "" && string(o.Status) != st {
			continue
		}
		if f := q.Get("farmer_id"); f != "" && o.FarmerID != f {
			continue
		}
		if sh := q.Get("shop_id"); sh != "" && o.ShopID != sh {
			continue
		}
		items = append(items, o)
	}
	s.lock.Unlock()

	slices.SortFunc(items, func(a, b orders.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	writeJSON(w, http.StatusOK, orders.ListResponse{Items: window(items, limit, offset), Total: len(items), Limit: limit, Offset: offset})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	o, ok := s.orders[r.PathValue("id")]
	s.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request, _ string) {
	var req orders.UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.orders[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			writeValidation(w, "status", "Input should be a valid order status")
			return
		}
		if o.Status == orders.StatusCancelled || o.Status == orders.StatusDelivered {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Order is already %s", o.Status))
			return
		}
		o.Status = *req.Status
	}
	if req.DeliveryAddress != nil {
		o.DeliveryAddress = req.DeliveryAddress
	}
	if req.Notes != nil {
		o.Notes = req.Notes
	}
	o.UpdatedAt = now()
	s.orders[o.ID] = o
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) getDelivery(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	d, ok := s.deliveries[r.PathValue("id")]
	s.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Delivery not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateDelivery(w http.ResponseWriter, r *http.Request, _ string) {
	var req deliveries.UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	d, ok := s.deliveries[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Delivery not found")
		return
	}
	if req.Status != nil {
		d.Status = *req.Status
		if d.Status == deliveries.StatusDelivered {
			ts := now()
			d.DeliveredAt = &ts
		}
	}
	if req.CourierName != nil {
		d.CourierName = req.CourierName
	}
	if req.CourierPhone != nil {
		d.CourierPhone = req.CourierPhone
	}
	if req.TrackingNumber != nil {
		d.TrackingNumber = req.TrackingNumber
	}
	if req.EstimatedDelivery != nil {
		d.EstimatedDelivery = req.EstimatedDelivery
	}
	if req.Notes != nil {
		d.Notes = req.Notes
	}
	d.UpdatedAt = now()
	s.deliveries[d.OrderID] = d
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, userID string) {
	s.lock.Lock()
	u, ok := s.users[userID]
	var user users.User
	if ok {
		user = *u
	}
	s.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request, userID string) {
	var req users.UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	u, ok := s.users[userID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if req.EntityType != nil {
		u.EntityType = req.EntityType
	}
	if req.TaxID != nil {
		u.TaxID = req.TaxID
	}
	if req.LegalName != nil {
		u.LegalName = req.LegalName
	}
	if req.LegalAddress != nil {
		u.LegalAddress = req.LegalAddress
	}
	if req.BankAccount != nil {
		u.BankAccount = req.BankAccount
	}
	if req.Email != nil {
		u.Email = req.Email
	}
	u.UpdatedAt = now()
	writeJSON(w, http.StatusOK, *u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	status := s.usersListStatus
	s.lock.Unlock()
	if status != 0 {
		writeDetail(w, status, http.StatusText(status))
		return
	}
	limit, offset := paging(r)
	role := r.URL.Query().Get("role")

	s.lock.Lock()
	var items []users.User
	for _, u := range s.users {
		if role != "" && string(u.Role) != role {
			continue
		}
		items = append(items, *u)
	}
	s.lock.Unlock()

	slices.SortFunc(items, func(a, b users.User) int { return strings.Compare(a.PhoneNumber, b.PhoneNumber) })
	writeJSON(w, http.StatusOK, users.ListResponse{Items: window(items, limit, offset), Total: len(items), Limit: limit, Offset: offset})
}

func (s *Server) newUserLocked(phone string, role users.RoleType) *users.User {
	for _, u := range s.users {
		if u.PhoneNumber == phone {
			return u
		}
	}
	ts := now()
	u := &users.User{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Role:        role,
		IsVerified:  true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	s.users[u.ID] = u
	return u
}

func (s *Server) issueLocked(user *users.User) string {
	token := s.signer.accessToken(user)
	s.tokens[token] = user.ID
	return token
}

func (s *Server) authResponseLocked(user *users.User) auth.AuthResponse {
	return auth.AuthResponse{
		Token: auth.TokenResponse{
			AccessToken:      s.issueLocked(user),
			RefreshToken:     "refresh-" + uuid.NewString(),
			TokenType:        "bearer",
			ExpiresIn:        int(accessTokenExpiry.Seconds()),
			RefreshExpiresIn: 604800,
		},
		User: *user,
	}
}

func (s *Server) encodeProduct(p products.Product) any {
	s.lock.Lock()
	legacy := s.legacyProducts
	s.lock.Unlock()
	if !legacy {
		return p
	}
	raw, _ := json.Marshal(p)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	m["is_available"] = m["is_active"]
	delete(m, "is_active")
	return m
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func paging(r *http.Request) (limit, offset int) {
	limit = 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		offset = o
	}
	return limit, offset
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, "body", "Invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}
