package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SufailSLX/budget-tracker/internal/handlers"
	"github.com/SufailSLX/budget-tracker/internal/middleware"
	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
	"github.com/SufailSLX/budget-tracker/internal/routes"
	"github.com/SufailSLX/budget-tracker/internal/services"
)

// In-memory repositories backing a full HTTP round trip. They mirror the
// owner-scoping and conditional-update semantics of the Mongo layer.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memUserRepo) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.Email == u.Email {
			return errors.New("duplicate key")
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID.Hex()] = &cp
	return nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) SetMonthlyBudget(ctx context.Context, id primitive.ObjectID, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.MonthlyBudget = &amount
	return nil
}

func (m *memUserRepo) SetLinkedAccounts(ctx context.Context, id primitive.ObjectID, accounts []models.LinkedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LinkedAccounts = append([]models.LinkedAccount(nil), accounts...)
	return nil
}

func (m *memUserRepo) SetPreferences(ctx context.Context, id primitive.ObjectID, prefs models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Preferences = prefs
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id.Hex())
	return nil
}

func (m *memUserRepo) SetOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	cp := *otp
	u.OTP = &cp
	return nil
}

func (m *memUserRepo) IncrementOTPAttempts(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok || u.OTP == nil {
		return repository.ErrUserNotFound
	}
	u.OTP.Attempts++
	return nil
}

func (m *memUserRepo) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id.Hex()]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsVerified = true
	u.OTP = nil
	return nil
}

func (m *memUserRepo) SetPin(ctx context.Context, email, pinHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.IsVerified && u.PinHash == "" {
			u.PinHash = pinHash
			return true, nil
		}
	}
	return false, nil
}

type memTxRepo struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func (m *memTxRepo) Create(ctx context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.txs[t.ID.Hex()] = &cp
	return nil
}

func (m *memTxRepo) FindByID(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id.Hex()]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTxRepo) match(userID primitive.ObjectID, typ string, start, end *time.Time) []models.Transaction {
	out := []models.Transaction{}
	for _, t := range m.txs {
		if t.UserID != userID {
			continue
		}
		if typ != "" && t.Type != typ {
			continue
		}
		if start != nil && t.Date.Before(*start) {
			continue
		}
		if end != nil && t.Date.After(*end) {
			continue
		}
		out = append(out, *t)
	}
	return out
}

func (m *memTxRepo) List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []models.Transaction{}
	for _, t := range m.match(f.UserID, f.Type, f.StartDate, f.EndDate) {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(t.Title), q) &&
				!strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memTxRepo) Update(ctx context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.txs[t.ID.Hex()]
	if !ok || e.UserID != t.UserID {
		return repository.ErrNotFound
	}
	cp := *t
	m.txs[t.ID.Hex()] = &cp
	return nil
}

func (m *memTxRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id.Hex()]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	delete(m.txs, id.Hex())
	cp := *t
	return &cp, nil
}

func (m *memTxRepo) ListRange(ctx context.Context, userID primitive.ObjectID, f repository.RangeFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.match(userID, f.Type, f.StartDate, f.EndDate), nil
}

type memNotifRepo struct {
	mu     sync.Mutex
	notifs []*models.Notification
}

func (m *memNotifRepo) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	cp := *n
	m.notifs = append(m.notifs, &cp)
	return nil
}

func (m *memNotifRepo) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range m.notifs {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (m *memNotifRepo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c int64
	for _, n := range m.notifs {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (m *memNotifRepo) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifs {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			cp := *n
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memNotifRepo) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c int64
	for _, n := range m.notifs {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

func (m *memNotifRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notifs {
		if n.ID == id && n.UserID == userID {
			m.notifs = append(m.notifs[:i], m.notifs[i+1:]...)
			cp := *n
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memNotifRepo) ListAll(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range m.notifs {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

// captureMailer records the last OTP so the test can complete verification.
type captureMailer struct {
	mu      sync.Mutex
	lastOTP string
}

func (c *captureMailer) SendOTP(ctx context.Context, email, fullName, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastOTP = code
	return nil
}

func (c *captureMailer) SendWelcome(ctx context.Context, email, fullName string) error { return nil }

func (c *captureMailer) otp() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOTP
}

type testEnv struct {
	app  *fiber.App
	mail *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	const secret = "test-secret"

	userRepo := &memUserRepo{users: map[string]*models.User{}}
	txRepo := &memTxRepo{txs: map[string]*models.Transaction{}}
	notifRepo := &memNotifRepo{}
	mail := &captureMailer{}
	logger := zap.NewNop()

	authSvc := services.NewAuthService(userRepo, notifRepo, mail, nil,
		secret, time.Hour, 10*time.Minute, bcrypt.MinCost, logger)
	txSvc := services.NewTransactionService(txRepo)
	notifSvc := services.NewNotificationService(notifRepo)
	userSvc := services.NewUserService(userRepo)

	h := handlers.NewHandler(authSvc, txSvc, notifSvc, userSvc, "test", logger)
	app := fiber.New()
	routes.Setup(app, h, middleware.RequireAuth(userRepo, secret))

	return &testEnv{app: app, mail: mail}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return resp.StatusCode, out
}

// signUp drives the whole onboarding flow and returns a session token.
func (e *testEnv) signUp(t *testing.T, email, pin string) string {
	t.Helper()
	status, body := e.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"fullName": "Test User",
		"email":    email,
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", body)
	require.Equal(t, "verify_otp", body["step"])

	status, body = e.request(t, http.MethodPost, "/api/auth/verify-otp", "", fiber.Map{
		"email": email,
		"otp":   e.mail.otp(),
	})
	require.Equal(t, http.StatusOK, status, "verify: %v", body)
	require.Equal(t, "create_pin", body["step"])

	status, body = e.request(t, http.MethodPost, "/api/auth/set-pin", "", fiber.Map{
		"email":      email,
		"pin":        pin,
		"confirmPin": pin,
	})
	require.Equal(t, http.StatusOK, status, "set-pin: %v", body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestOnboardingFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "flow@example.com", "1234")

	status, body := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "flow@example.com", user["email"])

	// fresh login works too
	status, body = env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "flow@example.com",
		"pin":   "1234",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
}

func TestLogin_FailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "alike@example.com", "1234")

	status1, body1 := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "alike@example.com",
		"pin":   "0000",
	})
	status2, body2 := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "stranger@example.com",
		"pin":   "1234",
	})
	assert.Equal(t, http.StatusUnauthorized, status1)
	assert.Equal(t, http.StatusUnauthorized, status2)
	assert.Equal(t, body1["message"], body2["message"],
		"wrong PIN and unknown email must produce identical responses")
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"fullName": "W", "email": "wrong@example.com",
	})

	wrong := "000000"
	if env.mail.otp() == wrong {
		wrong = "000001"
	}
	status, body := env.request(t, http.MethodPost, "/api/auth/verify-otp", "", fiber.Map{
		"email": "wrong@example.com",
		"otp":   wrong,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"fullName": "X",
		"email":    "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])
	assert.NotEmpty(t, body["errors"])
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/api/transactions/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized", body["message"])

	status, _ = env.request(t, http.MethodGet, "/api/transactions/", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ledger@example.com", "1234")

	status, body := env.request(t, http.MethodPost, "/api/transactions/", token, fiber.Map{
		"title":    "Coffee",
		"amount":   4.5,
		"type":     "expense",
		"category": "Food",
	})
	require.Equal(t, http.StatusCreated, status, "create: %v", body)
	assert.Equal(t, "Debit added successfully", body["message"])
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "debit", tx["type"], `"expense" is stored as debit`)
	txID := tx["id"].(string)

	status, body = env.request(t, http.MethodPost, "/api/transactions/", token, fiber.Map{
		"title":    "Salary",
		"amount":   5000,
		"type":     "credit",
		"category": "Income",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Credit added successfully", body["message"])

	status, body = env.request(t, http.MethodGet, "/api/transactions/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["transactions"], 2)
	pg := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pg["totalTransactions"])
	assert.Equal(t, float64(1), pg["totalPages"])

	status, body = env.request(t, http.MethodPut, "/api/transactions/"+txID, token, fiber.Map{
		"amount": 5.25,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5.25, body["transaction"].(map[string]any)["amount"])

	status, body = env.request(t, http.MethodDelete, "/api/transactions/"+txID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Coffee", body["deletedTransaction"].(map[string]any)["title"])

	status, _ = env.request(t, http.MethodGet, "/api/transactions/"+txID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTransactions_AreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.signUp(t, "owner@example.com", "1111")
	otherToken := env.signUp(t, "other@example.com", "2222")

	status, body := env.request(t, http.MethodPost, "/api/transactions/", ownerToken, fiber.Map{
		"title": "Secret", "amount": 10, "type": "debit", "category": "Misc",
	})
	require.Equal(t, http.StatusCreated, status)
	txID := body["transaction"].(map[string]any)["id"].(string)

	status, _ = env.request(t, http.MethodGet, "/api/transactions/"+txID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status,
		"another user's transaction must read as missing, not forbidden")
}

func TestMonthlyAnalyticsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "stats@example.com", "1234")

	now := time.Now().UTC()
	for _, amt := range []float64{100, 200} {
		status, _ := env.request(t, http.MethodPost, "/api/transactions/", token, fiber.Map{
			"title": "Entry", "amount": amt, "type": "credit", "category": "Income",
			"date": now.Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := env.request(t, http.MethodGet, "/api/transactions/analytics/monthly?months=2", token, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	current := data[1].(map[string]any)
	assert.Equal(t, float64(300), current["credits"])
	assert.Equal(t, float64(2), current["transactionCount"])
}

func TestSavingsPlanOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "plan@example.com", "1234")

	status, body := env.request(t, http.MethodPost, "/api/user/savings-plan", token, fiber.Map{
		"monthlyBudget": 2000,
	})
	require.Equal(t, http.StatusOK, status, "savings-plan: %v", body)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2000), data["monthlyBudget"])
	assert.Len(t, data["suggestions"], 5)
	assert.Equal(t, float64(60), data["utilizationPercentage"])

	// budget now shows on the profile
	status, body = env.request(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	profile := body["profile"].(map[string]any)
	assert.Equal(t, float64(2000), profile["monthlyBudget"])
}

func TestNotificationsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "notify@example.com", "1234")

	// the welcome notification is dispatched asynchronously; create one
	// synchronously so the listing is deterministic
	status, body := env.request(t, http.MethodPost, "/api/notifications/", token, fiber.Map{
		"title":   "Budget exceeded",
		"message": "You spent more than planned this month",
		"type":    "budget_alert",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, status, "create: %v", body)
	notifID := body["notification"].(map[string]any)["id"].(string)

	status, body = env.request(t, http.MethodPatch, "/api/notifications/"+notifID+"/read", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["notification"].(map[string]any)["isRead"])

	status, _ = env.request(t, http.MethodPatch, "/api/notifications/mark-all-read", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.request(t, http.MethodDelete, "/api/notifications/"+notifID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Budget exceeded", body["deletedNotification"].(map[string]any)["title"])
}

func TestUnknownEndpoint(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodGet, "/api/nope", nil)
	require.NoError(t, err)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	// routes.Setup alone has no catch-all; Fiber's default 404 applies
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
