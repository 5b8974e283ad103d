package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expense-tracker/internal/config"
	"expense-tracker/internal/database"
	"expense-tracker/internal/models"
	"expense-tracker/internal/notify"
	"expense-tracker/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

// newTestServer 使用临时 SQLite 文件启动完整路由
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "test.db")},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "expense-tracker", ExpireHours: 168},
		Security: config.SecurityConfig{BcryptCost: 4, EncryptionKey: "test-encryption-key"},
		Upload:   config.UploadConfig{Dir: filepath.Join(dir, "uploads"), MaxBytes: 5 << 20},
		Backup:   config.BackupConfig{Dir: filepath.Join(dir, "backups")},
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := database.SeedDefaultCategories(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	scheduler := notify.NewScheduler(db, time.Hour, notify.Thresholds{
		WarnPercent: 90,
		LowBalance:  decimal.NewFromInt(1000),
	}, notify.LogPublisher{})

	return &testServer{engine: SetupRouter(cfg, db, scheduler), db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	dec := json.NewDecoder(w.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d, body %s", w.Code, status, w.Body.String())
	}
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	if body.Error != msg {
		t.Errorf("error = %q, want %q", body.Error, msg)
	}
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Tester", "email": email, "password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return resp.Token
}

// categoryID 按名称查找对当前用户可见的分类
func (s *testServer) categoryID(t *testing.T, token, name string) uint {
	t.Helper()
	w := s.do(t, http.MethodGet, "/api/categories", token, nil)
	var resp struct {
		Categories []models.Category `json:"categories"`
	}
	decode(t, w, &resp)
	for _, c := range resp.Categories {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func (s *testServer) addTransaction(t *testing.T, token string, catID uint, kind, amount, date string) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"amount":      json.Number(amount),
		"category_id": catID,
		"type":        kind,
		"note":        "test",
		"tags":        "a, b",
		"date":        date,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Transaction struct {
			ID uint `json:"id"`
		} `json:"transaction"`
	}
	decode(t, w, &resp)
	return resp.Transaction.ID
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice@example.com")

	tests := []struct {
		name   string
		path   string
		body   map[string]string
		status int
		msg    string
	}{
		{"重复邮箱", "/api/auth/signup", map[string]string{"name": "A", "email": "alice@example.com", "password": "x"}, 400, "User already exists"},
		{"缺少字段", "/api/auth/signup", map[string]string{"name": "A", "email": "b@example.com"}, 400, "All fields are required"},
		{"邮箱区分大小写", "/api/auth/signin", map[string]string{"email": "Alice@example.com", "password": "secret123"}, 400, "Invalid credentials"},
		{"密码错误", "/api/auth/signin", map[string]string{"email": "alice@example.com", "password": "wrong"}, 400, "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, http.MethodPost, tt.path, "", tt.body), tt.status, tt.msg)
		})
	}

	w := s.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signin status = %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("me leaks password hash: %s", w.Body.String())
	}
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	if me.User.Email != "alice@example.com" || me.User.Theme != models.ThemeLight {
		t.Errorf("me = %+v", me.User)
	}

	expectError(t, s.do(t, http.MethodGet, "/api/auth/me", "", nil), 401, "Access token required")
	expectError(t, s.do(t, http.MethodGet, "/api/auth/me", "garbage", nil), 403, "Invalid token")

	// 退出后会话被撤销
	if w := s.do(t, http.MethodPost, "/api/auth/signout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("signout status = %d", w.Code)
	}
	var revoked int64
	s.db.Model(&models.Session{}).Where("revoked = ?", true).Count(&revoked)
	if revoked != 1 {
		t.Errorf("revoked sessions = %d, want 1", revoked)
	}
}

func TestProfileAndPassword(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "bob@example.com")
	s.signup(t, "taken@example.com")

	expectError(t, s.do(t, http.MethodPut, "/api/users/profile", token,
		map[string]string{"name": "Bob", "email": "bob@example.com", "theme": "blue"}), 400, "Theme must be light or dark")
	expectError(t, s.do(t, http.MethodPut, "/api/users/profile", token,
		map[string]string{"name": "Bob", "email": "taken@example.com"}), 400, "Email already in use")

	w := s.do(t, http.MethodPut, "/api/users/profile", token,
		map[string]string{"name": "Bobby", "email": "bobby@example.com", "theme": "dark"})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		User models.User `json:"user"`
	}
	decode(t, w, &resp)
	if resp.User.Name != "Bobby" || resp.User.Theme != models.ThemeDark {
		t.Errorf("user = %+v", resp.User)
	}

	expectError(t, s.do(t, http.MethodPut, "/api/users/password", token,
		map[string]string{"current_password": "nope", "new_password": "newsecret"}), 400, "Current password is incorrect")
	if w := s.do(t, http.MethodPut, "/api/users/password", token,
		map[string]string{"current_password": "secret123", "new_password": "newsecret"}); w.Code != http.StatusOK {
		t.Fatalf("change password status = %d, body %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/api/auth/signin", "",
		map[string]string{"email": "bobby@example.com", "password": "newsecret"}); w.Code != http.StatusOK {
		t.Errorf("signin with new password status = %d", w.Code)
	}
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "cat@example.com")
	other := s.signup(t, "other@example.com")

	w := s.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Coffee", "type": "expense"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		Category models.Category `json:"category"`
	}
	decode(t, w, &created)
	if created.Category.Icon != models.DefaultCategoryIcon || created.Category.Color != models.DefaultCategoryColor {
		t.Errorf("defaults not applied: %+v", created.Category)
	}

	expectError(t, s.do(t, http.MethodPost, "/api/categories", token,
		map[string]string{"name": "Bad", "type": "transfer"}), 400, "Type must be income or expense")

	count := func(token string) int {
		var resp struct {
			Categories []models.Category `json:"categories"`
		}
		decode(t, s.do(t, http.MethodGet, "/api/categories", token, nil), &resp)
		return len(resp.Categories)
	}
	if got := count(token); got != len(database.DefaultCategories)+1 {
		t.Errorf("owner sees %d categories, want %d", got, len(database.DefaultCategories)+1)
	}
	if got := count(other); got != len(database.DefaultCategories) {
		t.Errorf("other user sees %d categories, want %d", got, len(database.DefaultCategories))
	}
}

func TestTransactionAmountRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "money@example.com")
	food := s.categoryID(t, token, "Food & Dining")

	for _, amount := range []string{"19.99", "0.1", "1234567.89"} {
		s.addTransaction(t, token, food, models.TypeExpense, amount, "2025-03-01")
	}

	var resp struct {
		Transactions []map[string]interface{} `json:"transactions"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/transactions?sort=amount&order=asc", token, nil), &resp)
	want := []string{"0.1", "19.99", "1234567.89"}
	if len(resp.Transactions) != len(want) {
		t.Fatalf("got %d transactions", len(resp.Transactions))
	}
	for i, tx := range resp.Transactions {
		if got := tx["amount"].(json.Number).String(); got != want[i] {
			t.Errorf("amount[%d] = %s, want %s", i, got, want[i])
		}
		if tx["category_name"] != "Food & Dining" {
			t.Errorf("category_name = %v", tx["category_name"])
		}
	}
}

func TestTransactionValidationAndFilters(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "filter@example.com")
	food := s.categoryID(t, token, "Food & Dining")
	salary := s.categoryID(t, token, "Salary")

	tests := []struct {
		name string
		body map[string]interface{}
		msg  string
	}{
		{"金额为零", map[string]interface{}{"amount": 0, "category_id": food, "type": "expense", "date": "2025-03-01"}, "Amount must be a positive number"},
		{"类型错误", map[string]interface{}{"amount": 5, "category_id": food, "type": "gift", "date": "2025-03-01"}, "Type must be income or expense"},
		{"日期格式错误", map[string]interface{}{"amount": 5, "category_id": food, "type": "expense", "date": "03/01/2025"}, "Date must be YYYY-MM-DD"},
		{"分类不存在", map[string]interface{}{"amount": 5, "category_id": 9999, "type": "expense", "date": "2025-03-01"}, "Invalid category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, http.MethodPost, "/api/transactions", token, tt.body), 400, tt.msg)
		})
	}

	s.addTransaction(t, token, food, models.TypeExpense, "10", "2025-02-10")
	s.addTransaction(t, token, food, models.TypeExpense, "20", "2025-03-05")
	s.addTransaction(t, token, salary, models.TypeIncome, "3000", "2025-03-01")

	list := func(query string) []map[string]interface{} {
		var resp struct {
			Transactions []map[string]interface{} `json:"transactions"`
		}
		decode(t, s.do(t, http.MethodGet, "/api/transactions"+query, token, nil), &resp)
		return resp.Transactions
	}

	all := list("")
	if len(all) != 3 || all[0]["date"] != "2025-03-05" || all[2]["date"] != "2025-02-10" {
		t.Errorf("default order wrong: %v", all)
	}
	if got := len(list("?type=income")); got != 1 {
		t.Errorf("type=income returned %d", got)
	}
	if got := len(list("?from=2025-03-01&to=2025-03-31")); got != 2 {
		t.Errorf("date range returned %d", got)
	}
	if got := len(list("?q=salary")); got != 1 {
		t.Errorf("q=salary returned %d", got)
	}
	if got := len(list(fmt.Sprintf("?category_id=%d", food))); got != 2 {
		t.Errorf("category filter returned %d", got)
	}
}

func TestOwnershipScoping(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice@example.com")
	mallory := s.signup(t, "mallory@example.com")
	food := s.categoryID(t, alice, "Food & Dining")
	id := s.addTransaction(t, alice, food, models.TypeExpense, "42", "2025-03-01")
	path := fmt.Sprintf("/api/transactions/%d", id)

	expectError(t, s.do(t, http.MethodDelete, path, mallory, nil), 404, "Transaction not found")
	expectError(t, s.do(t, http.MethodPut, path, mallory, map[string]interface{}{
		"amount": 1, "category_id": food, "type": "expense", "date": "2025-03-01",
	}), 404, "Transaction not found")
	expectError(t, s.do(t, http.MethodDelete, "/api/transactions/abc", alice, nil), 404, "Transaction not found")

	count := func(token string) int {
		var resp struct {
			Transactions []map[string]interface{} `json:"transactions"`
		}
		decode(t, s.do(t, http.MethodGet, "/api/transactions", token, nil), &resp)
		return len(resp.Transactions)
	}
	if count(alice) != 1 || count(mallory) != 0 {
		t.Fatalf("counts after foreign delete: alice=%d mallory=%d", count(alice), count(mallory))
	}

	w := s.do(t, http.MethodPut, path, alice, map[string]interface{}{
		"amount": json.Number("43.5"), "category_id": food, "type": "expense", "date": "2025-03-02", "note": "updated",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodDelete, path, alice, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	expectError(t, s.do(t, http.MethodDelete, path, alice, nil), 404, "Transaction not found")
}

func TestReceiptUploadRejectsNonImage(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "receipt@example.com")
	food := s.categoryID(t, token, "Food & Dining")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"amount": "12.50", "category_id": fmt.Sprint(food), "type": "expense", "date": "2025-03-01",
	} {
		mw.WriteField(k, v)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="receipt"; filename="notes.txt"`)
	h.Set("Content-Type", "text/plain")
	part, _ := mw.CreatePart(h)
	part.Write([]byte("not an image"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	expectError(t, w, 400, "Only image files are allowed")

	var n int64
	s.db.Model(&models.Transaction{}).Count(&n)
	if n != 0 {
		t.Errorf("transaction stored despite rejected receipt")
	}
}

func TestStatsSummary(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "stats@example.com")
	food := s.categoryID(t, token, "Food & Dining")
	salary := s.categoryID(t, token, "Salary")

	s.addTransaction(t, token, salary, models.TypeIncome, "5000", "2025-03-01")
	s.addTransaction(t, token, food, models.TypeExpense, "1200", "2025-03-10")
	s.addTransaction(t, token, food, models.TypeExpense, "1000", "2025-02-10")
	s.addTransaction(t, token, food, models.TypeExpense, "999", "2024-01-10") // 窗口之外

	w := s.do(t, http.MethodGet, "/api/stats?month=2025-03", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body %s", w.Code, w.Body.String())
	}
	var sum stats.Summary
	decode(t, w, &sum)

	if !sum.CurrentMonth.Income.Equal(decimal.NewFromInt(5000)) ||
		!sum.CurrentMonth.Expenses.Equal(decimal.NewFromInt(1200)) ||
		!sum.CurrentMonth.Balance.Equal(decimal.NewFromInt(3800)) {
		t.Errorf("currentMonth = %+v", sum.CurrentMonth)
	}
	if !sum.PreviousMonth.Expenses.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("previousMonth = %+v", sum.PreviousMonth)
	}
	if sum.Changes.Expenses != 20 {
		t.Errorf("changes.expenses = %v, want 20", sum.Changes.Expenses)
	}
	if len(sum.MonthlyTrends) != 6 || sum.MonthlyTrends[5].Key != "2025-03" || sum.MonthlyTrends[0].Key != "2024-10" {
		t.Errorf("monthlyTrends = %+v", sum.MonthlyTrends)
	}
	if len(sum.CategoryExpenses) != 1 || sum.CategoryExpenses[0].Name != "Food & Dining" {
		t.Errorf("categoryExpenses = %+v", sum.CategoryExpenses)
	}

	expectError(t, s.do(t, http.MethodGet, "/api/stats?month=2025-13", token, nil), 400, "Month must be YYYY-MM")

	var cal struct {
		Month string             `json:"month"`
		Days  []stats.DaySummary `json:"days"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/stats/calendar?month=2025-03", token, nil), &cal)
	if cal.Month != "2025-03" || len(cal.Days) != 2 || cal.Days[0].Date != "2025-03-01" {
		t.Errorf("calendar = %+v", cal)
	}

	w = s.do(t, http.MethodGet, "/api/stats/trends.png?month=2025-03", token, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("trends.png status = %d, type %q", w.Code, w.Header().Get("Content-Type"))
	}
	expectError(t, s.do(t, http.MethodGet, "/api/stats/categories.png?month=2023-01", token, nil), 404, "No expenses this month")
}

func TestBudgetProgress(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "budget@example.com")
	food := s.categoryID(t, token, "Food & Dining")

	w := s.do(t, http.MethodPost, "/api/budgets", token, map[string]interface{}{
		"category_id": food, "amount": 1000, "month": "2025-03",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d, body %s", w.Code, w.Body.String())
	}
	expectError(t, s.do(t, http.MethodPost, "/api/budgets", token, map[string]interface{}{
		"category_id": food, "amount": -1, "month": "2025-03",
	}), 400, "Amount must not be negative")
	expectError(t, s.do(t, http.MethodPost, "/api/budgets", token, map[string]interface{}{
		"category_id": food, "amount": 10, "month": "March",
	}), 400, "Month must be YYYY-MM")

	s.addTransaction(t, token, food, models.TypeExpense, "600", "2025-03-02")
	s.addTransaction(t, token, food, models.TypeExpense, "250", "2025-03-20")
	s.addTransaction(t, token, food, models.TypeExpense, "400", "2025-04-01")

	var overview stats.BudgetOverview
	decode(t, s.do(t, http.MethodGet, "/api/budgets/progress?month=2025-03", token, nil), &overview)
	if len(overview.Budgets) != 1 {
		t.Fatalf("budgets = %+v", overview.Budgets)
	}
	b := overview.Budgets[0]
	if !b.Spent.Equal(decimal.NewFromInt(850)) || b.Percentage != 85 || b.Status != stats.StatusWarning {
		t.Errorf("progress = %+v", b)
	}
	if b.Category.Name != "Food & Dining" {
		t.Errorf("category = %+v", b.Category)
	}
	if !overview.Totals.TotalRemaining.Equal(decimal.NewFromInt(150)) {
		t.Errorf("totals = %+v", overview.Totals)
	}

	var list struct {
		Budgets []map[string]interface{} `json:"budgets"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/budgets", token, nil), &list)
	if len(list.Budgets) != 1 || list.Budgets[0]["category_name"] != "Food & Dining" {
		t.Errorf("budget list = %v", list.Budgets)
	}
	id := list.Budgets[0]["id"].(json.Number).String()

	other := s.signup(t, "other@example.com")
	expectError(t, s.do(t, http.MethodDelete, "/api/budgets/"+id, other, nil), 404, "Budget not found")
	if w := s.do(t, http.MethodDelete, "/api/budgets/"+id, token, nil); w.Code != http.StatusOK {
		t.Errorf("delete budget status = %d", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "export@example.com")
	food := s.categoryID(t, token, "Food & Dining")
	salary := s.categoryID(t, token, "Salary")
	s.addTransaction(t, token, food, models.TypeExpense, "12.5", "2025-03-02")
	s.addTransaction(t, token, salary, models.TypeIncome, "100", "2025-03-01")

	w := s.do(t, http.MethodGet, "/api/export/csv?type=expense", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	body := strings.TrimPrefix(w.Body.String(), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "Date,Type,Amount,Category,Note,Tags,Created At" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-03-02,expense,12.50,Food & Dining,test") {
		t.Errorf("row = %q", lines[1])
	}

	expectError(t, s.do(t, http.MethodGet, "/api/export/csv?range=custom", token, nil), 400, "Invalid export options")

	w = s.do(t, http.MethodGet, "/api/export/xlsx", token, nil)
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Errorf("xlsx status = %d", w.Code)
	}
}

func TestNotificationsCheck(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "notify@example.com")
	food := s.categoryID(t, token, "Food & Dining")
	month := stats.MonthKey(time.Now())

	s.do(t, http.MethodPost, "/api/budgets", token, map[string]interface{}{
		"category_id": food, "amount": 1000, "month": month,
	})
	s.addTransaction(t, token, food, models.TypeExpense, "950", month+"-01")

	var first struct {
		Notifications []models.Notification `json:"notifications"`
	}
	decode(t, s.do(t, http.MethodPost, "/api/notifications/check", token, nil), &first)
	kinds := map[string]bool{}
	for _, n := range first.Notifications {
		kinds[n.Kind] = true
	}
	if !kinds[models.NotifyBudgetWarning] || !kinds[models.NotifyLowBalance] || len(first.Notifications) != 2 {
		t.Fatalf("first check = %+v", first.Notifications)
	}

	var second struct {
		Notifications []models.Notification `json:"notifications"`
	}
	decode(t, s.do(t, http.MethodPost, "/api/notifications/check", token, nil), &second)
	if len(second.Notifications) != 0 {
		t.Errorf("second check created %d notifications", len(second.Notifications))
	}

	var list struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int64                 `json:"unread"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/notifications", token, nil), &list)
	if len(list.Notifications) != 2 || list.Unread != 2 {
		t.Fatalf("list = %+v", list)
	}

	path := fmt.Sprintf("/api/notifications/%d/read", list.Notifications[0].ID)
	if w := s.do(t, http.MethodPut, path, token, nil); w.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", w.Code)
	}
	other := s.signup(t, "other@example.com")
	expectError(t, s.do(t, http.MethodPut, path, other, nil), 404, "Notification not found")

	decode(t, s.do(t, http.MethodGet, "/api/notifications?unread=true", token, nil), &list)
	if len(list.Notifications) != 1 || list.Unread != 1 {
		t.Errorf("unread list = %+v", list)
	}
}

func TestAuditLogs(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "audit@example.com")
	s.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Books", "type": "expense"})
	s.do(t, http.MethodGet, "/api/categories", token, nil)

	var resp struct {
		Items []struct {
			Method string `json:"method"`
			Path   string `json:"path"`
			Status int    `json:"status"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/logs", token, nil), &resp)
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("logs = %+v", resp)
	}
	got := resp.Items[0]
	if got.Method != http.MethodPost || got.Path != "/api/categories" || got.Status != http.StatusCreated {
		t.Errorf("log item = %+v", got)
	}

	var stored models.AuditLog
	s.db.First(&stored)
	if strings.Contains(stored.PathEnc, "categories") {
		t.Errorf("path stored in plain text: %q", stored.PathEnc)
	}
}

func TestBackupRestore(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "backup@example.com")

	w := s.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Coffee", "type": "expense"})
	var created struct {
		Category models.Category `json:"category"`
	}
	decode(t, w, &created)
	s.addTransaction(t, token, created.Category.ID, models.TypeExpense, "4.5", "2025-03-03")

	w = s.do(t, http.MethodPost, "/api/backups", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create backup status = %d, body %s", w.Code, w.Body.String())
	}
	var backup struct {
		Backup struct {
			ID uint `json:"id"`
		} `json:"backup"`
	}
	decode(t, w, &backup)

	// 删除分类会级联删除交易
	s.db.Where("id = ?", created.Category.ID).Delete(&models.Category{})

	other := s.signup(t, "thief@example.com")
	restorePath := fmt.Sprintf("/api/backups/%d/restore", backup.Backup.ID)
	expectError(t, s.do(t, http.MethodPost, restorePath, other, nil), 404, "Backup not found")

	if w := s.do(t, http.MethodPost, restorePath, token, nil); w.Code != http.StatusOK {
		t.Fatalf("restore status = %d, body %s", w.Code, w.Body.String())
	}

	var list struct {
		Transactions []map[string]interface{} `json:"transactions"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/transactions", token, nil), &list)
	if len(list.Transactions) != 1 || list.Transactions[0]["category_name"] != "Coffee" {
		t.Errorf("restored transactions = %v", list.Transactions)
	}

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/backups/%d/download", backup.Backup.ID), token, nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Errorf("download status = %d, len %d", w.Code, w.Body.Len())
	}
	if w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/backups/%d", backup.Backup.ID), token, nil); w.Code != http.StatusOK {
		t.Errorf("delete backup status = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("healthz status = %d", w.Code)
	}
}
