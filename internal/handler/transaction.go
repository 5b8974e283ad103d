package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/upload"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler 负责收支记录接口
type TransactionHandler struct {
	DB      *gorm.DB
	Uploads *upload.Store
}

func NewTransactionHandler(db *gorm.DB, uploads *upload.Store) *TransactionHandler {
	return &TransactionHandler{DB: db, Uploads: uploads}
}

// transactionReq 是 JSON 请求体；multipart 表单会被转换成同一结构
type transactionReq struct {
	Amount     decimal.Decimal `json:"amount"`
	CategoryID uint            `json:"category_id"`
	Type       string          `json:"type"`
	Note       string          `json:"note"`
	Tags       string          `json:"tags"`
	Date       string          `json:"date"`
}

// TransactionView 附带分类信息的交易记录
type TransactionView struct {
	models.Transaction
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
	CategoryIcon  string `json:"category_icon"`
	CategoryType  string `json:"category_type"`
}

func newTransactionView(tx models.Transaction) TransactionView {
	v := TransactionView{Transaction: tx}
	if tx.Category != nil {
		v.CategoryName = tx.Category.Name
		v.CategoryColor = tx.Category.Color
		v.CategoryIcon = tx.Category.Icon
		v.CategoryType = tx.Category.Type
	}
	return v
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindTransaction 读取 JSON 或 multipart 表单，返回 400 时已写出响应
func bindTransaction(c *gin.Context) (*transactionReq, bool) {
	var req transactionReq
	if isMultipart(c) {
		amount, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("amount")))
		if err != nil {
			util.Error(c, http.StatusBadRequest, "Amount must be a positive number")
			return nil, false
		}
		catID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("category_id")), 10, 64)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "Category is required")
			return nil, false
		}
		req = transactionReq{
			Amount:     amount,
			CategoryID: uint(catID),
			Type:       c.PostForm("type"),
			Note:       c.PostForm("note"),
			Tags:       c.PostForm("tags"),
			Date:       c.PostForm("date"),
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	req.Type = strings.TrimSpace(req.Type)
	req.Date = strings.TrimSpace(req.Date)
	req.Note = strings.TrimSpace(req.Note)
	req.Tags = util.NormalizeTags(req.Tags)

	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, "Amount must be a positive number")
		return nil, false
	}
	if err := util.ValidateType(req.Type); err != nil {
		util.Error(c, http.StatusBadRequest, "Type must be income or expense")
		return nil, false
	}
	if err := util.ValidateDate(req.Date); err != nil {
		util.Error(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return nil, false
	}
	if req.CategoryID == 0 {
		util.Error(c, http.StatusBadRequest, "Category is required")
		return nil, false
	}
	return &req, true
}

// checkCategory 确认分类对当前用户可见
func checkCategory(c *gin.Context, db *gorm.DB, userID, categoryID uint) bool {
	if _, err := visibleCategory(db, userID, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusBadRequest, "Invalid category")
		} else {
			util.ServerError(c, "find category", err)
		}
		return false
	}
	return true
}

// saveReceipt 保存可选的 receipt 文件；没有文件时返回空字符串
func (h *TransactionHandler) saveReceipt(c *gin.Context) (string, bool) {
	if !isMultipart(c) {
		return "", true
	}
	fh, err := c.FormFile("receipt")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		util.Error(c, http.StatusBadRequest, "Invalid receipt upload")
		return "", false
	}
	url, err := h.Uploads.Save(fh, "receipt")
	if err != nil {
		if !uploadError(c, err) {
			util.ServerError(c, "save receipt", err)
		}
		return "", false
	}
	return url, true
}

func (h *TransactionHandler) find(userID, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := h.DB.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// List 查询当前用户的交易，支持 type / category_id / q / from / to / sort / order
func (h *TransactionHandler) List(c *gin.Context, auth *middleware.AuthContext) {
	query := h.DB.Model(&models.Transaction{}).
		Select("transactions.*").
		Preload("Category").
		Where("transactions.user_id = ?", auth.UserID)

	if kind := c.Query("type"); kind != "" && kind != "all" {
		if err := util.ValidateType(kind); err != nil {
			util.Error(c, http.StatusBadRequest, "Type must be income or expense")
			return
		}
		query = query.Where("transactions.type = ?", kind)
	}
	if raw := c.Query("category_id"); raw != "" {
		catID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "Invalid category")
			return
		}
		query = query.Where("transactions.category_id = ?", catID)
	}
	if from := c.Query("from"); from != "" {
		if err := util.ValidateDate(from); err != nil {
			util.Error(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
			return
		}
		query = query.Where("transactions.date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		if err := util.ValidateDate(to); err != nil {
			util.Error(c, http.StatusBadRequest, "Date must be YYYY-MM-DD")
			return
		}
		query = query.Where("transactions.date <= ?", to)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + q + "%"
		query = query.Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
			Where("transactions.note LIKE ? OR transactions.tags LIKE ? OR categories.name LIKE ?", like, like, like)
	}

	asc := strings.EqualFold(c.Query("order"), "asc")
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	query = query.Order("transactions.date " + dir).Order("transactions.created_at " + dir)

	var list []models.Transaction
	if err := query.Find(&list).Error; err != nil {
		util.ServerError(c, "list transactions", err)
		return
	}

	// amount 以文本存储，排序放在内存里按十进制比较
	if c.Query("sort") == "amount" {
		sort.SliceStable(list, func(i, j int) bool {
			cmp := list[i].Amount.Cmp(list[j].Amount)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	}

	views := make([]TransactionView, 0, len(list))
	for _, tx := range list {
		views = append(views, newTransactionView(tx))
	}
	util.Success(c, util.Response{"transactions": views})
}

func (h *TransactionHandler) Create(c *gin.Context, auth *middleware.AuthContext) {
	req, ok := bindTransaction(c)
	if !ok {
		return
	}
	if !checkCategory(c, h.DB, auth.UserID, req.CategoryID) {
		return
	}
	receipt, ok := h.saveReceipt(c)
	if !ok {
		return
	}

	tx := models.Transaction{
		UserID:     auth.UserID,
		Amount:     req.Amount,
		CategoryID: req.CategoryID,
		Type:       req.Type,
		Note:       req.Note,
		Tags:       req.Tags,
		Date:       req.Date,
		ReceiptURL: receipt,
	}
	if err := h.DB.Create(&tx).Error; err != nil {
		if receipt != "" {
			_ = h.Uploads.Remove(receipt)
		}
		util.ServerError(c, "create transaction", err)
		return
	}

	created, err := h.find(auth.UserID, tx.ID)
	if err != nil {
		util.ServerError(c, "reload transaction", err)
		return
	}
	util.Created(c, util.Response{"transaction": newTransactionView(*created)})
}

// Update 覆盖交易字段；multipart 请求附带新的 receipt 时替换旧文件
func (h *TransactionHandler) Update(c *gin.Context, auth *middleware.AuthContext) {
	id, ok := paramID(c, "Transaction not found")
	if !ok {
		return
	}
	existing, err := h.find(auth.UserID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Transaction not found")
		} else {
			util.ServerError(c, "find transaction", err)
		}
		return
	}

	req, ok := bindTransaction(c)
	if !ok {
		return
	}
	if !checkCategory(c, h.DB, auth.UserID, req.CategoryID) {
		return
	}
	receipt, ok := h.saveReceipt(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"amount":      req.Amount,
		"category_id": req.CategoryID,
		"type":        req.Type,
		"note":        req.Note,
		"tags":        req.Tags,
		"date":        req.Date,
	}
	if receipt != "" {
		updates["receipt_url"] = receipt
	}

	res := h.DB.Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", id, auth.UserID).
		Updates(updates)
	if res.Error != nil {
		if receipt != "" {
			_ = h.Uploads.Remove(receipt)
		}
		util.ServerError(c, "update transaction", res.Error)
		return
	}
	if receipt != "" && existing.ReceiptURL != "" {
		if err := h.Uploads.Remove(existing.ReceiptURL); err != nil {
			slog.WarnContext(c.Request.Context(), "Remove old receipt failed", "error", err, "transaction_id", id)
		}
	}

	updated, err := h.find(auth.UserID, id)
	if err != nil {
		util.ServerError(c, "reload transaction", err)
		return
	}
	util.Success(c, util.Response{"transaction": newTransactionView(*updated)})
}

func (h *TransactionHandler) Delete(c *gin.Context, auth *middleware.AuthContext) {
	id, ok := paramID(c, "Transaction not found")
	if !ok {
		return
	}
	existing, err := h.find(auth.UserID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Transaction not found")
		} else {
			util.ServerError(c, "find transaction", err)
		}
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, auth.UserID).Delete(&models.Transaction{})
	if res.Error != nil {
		util.ServerError(c, "delete transaction", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "Transaction not found")
		return
	}
	if existing.ReceiptURL != "" {
		if err := h.Uploads.Remove(existing.ReceiptURL); err != nil {
			slog.WarnContext(c.Request.Context(), "Remove receipt failed", "error", err, "transaction_id", id)
		}
	}

	util.Success(c, util.Response{"message": "Transaction deleted successfully"})
}
