package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler 负责备份相关接口
type BackupHandler struct {
	DB         *gorm.DB
	EncryptKey string
	BackupDir  string
	Now        Clock
}

// NewBackupHandler 构造函数
func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string, now Clock) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
		Now:        now,
	}
}

// backupData 是写入备份文件的内容结构：用户自己的分类、交易和预算
type backupData struct {
	UserID       uint                 `json:"user_id"`
	Created      time.Time            `json:"created"`
	Categories   []models.Category    `json:"categories"`
	Transactions []models.Transaction `json:"transactions"`
	Budgets      []models.Budget      `json:"budgets"`
}

func backupItem(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"file_name":  b.FileName,
		"size":       b.Size,
		"created_at": b.CreatedAt,
	}
}

// find 查找当前用户的备份记录，失败时已写出响应
func (h *BackupHandler) find(c *gin.Context, userID uint) (*models.Backup, bool) {
	id, ok := paramID(c, "Backup not found")
	if !ok {
		return nil, false
	}
	var backup models.Backup
	if err := h.DB.
		Where("id = ? AND user_id = ?", id, userID).
		First(&backup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Backup not found")
		} else {
			util.ServerError(c, "find backup", err)
		}
		return nil, false
	}
	return &backup, true
}

// snapshot 读取用户的全部数据
func (h *BackupHandler) snapshot(userID uint) (*backupData, error) {
	data := backupData{UserID: userID, Created: h.Now.now()}
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&data.Categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if err := h.DB.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&data.Transactions).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if err := h.DB.Where("user_id = ?", userID).Order("month ASC, id ASC").Find(&data.Budgets).Error; err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	return &data, nil
}

// CreateBackup 生成当前用户的加密备份文件
func (h *BackupHandler) CreateBackup(c *gin.Context, auth *middleware.AuthContext) {
	data, err := h.snapshot(auth.UserID)
	if err != nil {
		util.ServerError(c, "snapshot", err)
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		util.ServerError(c, "marshal backup", err)
		return
	}

	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		util.ServerError(c, "encrypt backup", err)
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.ServerError(c, "create backup dir", err)
		return
	}

	// 使用 uuid 作为文件名
	fileName := fmt.Sprintf("backup-%d-%s.bin", auth.UserID, uuid.NewString())
	filePath := filepath.Join(h.BackupDir, fileName)

	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		util.ServerError(c, "write backup", err)
		return
	}

	backup := models.Backup{
		UserID:   auth.UserID,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.ServerError(c, "save backup", err)
		return
	}

	util.Created(c, util.Response{
		"backup": backupItem(&backup),
		"counts": gin.H{
			"categories":   len(data.Categories),
			"transactions": len(data.Transactions),
			"budgets":      len(data.Budgets),
		},
	})
}

// ListBackups 列出当前用户已有的备份
func (h *BackupHandler) ListBackups(c *gin.Context, auth *middleware.AuthContext) {
	var list []models.Backup
	if err := h.DB.
		Where("user_id = ?", auth.UserID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		util.ServerError(c, "list backups", err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupItem(&list[i]))
	}

	util.Success(c, util.Response{"backups": items})
}

// DownloadBackup 下载指定备份文件（密文）
func (h *BackupHandler) DownloadBackup(c *gin.Context, auth *middleware.AuthContext) {
	backup, ok := h.find(c, auth.UserID)
	if !ok {
		return
	}
	c.FileAttachment(backup.FilePath, backup.FileName)
}

// DeleteBackup 删除备份记录及对应文件
func (h *BackupHandler) DeleteBackup(c *gin.Context, auth *middleware.AuthContext) {
	backup, ok := h.find(c, auth.UserID)
	if !ok {
		return
	}

	// 先删文件，再删记录
	if err := os.Remove(backup.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		util.ServerError(c, "remove backup file", err)
		return
	}
	if err := h.DB.Delete(backup).Error; err != nil {
		util.ServerError(c, "delete backup", err)
		return
	}

	util.Success(c, util.Response{"message": "Backup deleted successfully"})
}

// RestoreBackup 用备份替换当前用户的分类、交易和预算。
// 自建分类重新分配 id，交易和预算按新 id 重新关联；
// 引用已不存在分类的记录被跳过。
func (h *BackupHandler) RestoreBackup(c *gin.Context, auth *middleware.AuthContext) {
	backup, ok := h.find(c, auth.UserID)
	if !ok {
		return
	}

	// 读文件并解密
	encData, err := os.ReadFile(backup.FilePath)
	if err != nil {
		util.ServerError(c, "read backup", err)
		return
	}
	raw, err := util.DecryptAES(h.EncryptKey, encData)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Backup file cannot be decrypted")
		return
	}
	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil {
		util.Error(c, http.StatusBadRequest, "Backup file is corrupted")
		return
	}

	// 备份中记录的 user_id 必须等于当前用户
	if data.UserID != auth.UserID {
		util.Error(c, http.StatusBadRequest, "Backup does not belong to current user")
		return
	}

	var restored, skipped int
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		restored, skipped = 0, 0
		// 删除用户自建分类会级联删除引用它们的交易和预算
		for _, model := range []interface{}{&models.Transaction{}, &models.Budget{}, &models.Category{}} {
			if err := tx.Where("user_id = ?", auth.UserID).Delete(model).Error; err != nil {
				return err
			}
		}

		var globals []models.Category
		if err := tx.Where("user_id IS NULL").Find(&globals).Error; err != nil {
			return err
		}
		ids := make(map[uint]uint, len(globals)+len(data.Categories))
		for _, g := range globals {
			ids[g.ID] = g.ID
		}

		userID := auth.UserID
		for _, cat := range data.Categories {
			oldID := cat.ID
			cat.ID = 0
			cat.UserID = &userID
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
			ids[oldID] = cat.ID
			restored++
		}

		for _, t := range data.Transactions {
			catID, ok := ids[t.CategoryID]
			if !ok {
				skipped++
				continue
			}
			t.ID = 0
			t.UserID = userID
			t.CategoryID = catID
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
			restored++
		}

		for _, b := range data.Budgets {
			catID, ok := ids[b.CategoryID]
			if !ok {
				skipped++
				continue
			}
			b.ID = 0
			b.UserID = userID
			b.CategoryID = catID
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
			restored++
		}
		return nil
	})
	if err != nil {
		util.ServerError(c, "restore backup", err)
		return
	}

	util.Success(c, util.Response{
		"message":  "Backup restored",
		"restored": restored,
		"skipped":  skipped,
	})
}
