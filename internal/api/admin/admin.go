package admin

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gin-gonic/gin"

	"github.com/heyirisdotdev/hades-kitten/config"
	"github.com/heyirisdotdev/hades-kitten/internal/errors"
	"github.com/heyirisdotdev/hades-kitten/internal/service"
	"github.com/heyirisdotdev/hades-kitten/internal/storage"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// AdminHandler 按功能模块组织管理端处理方法
type AdminHandler struct {
	regionService *service.RegionService
	statsService  *service.StatsService
	avatars       *storage.AvatarStorage
}

// NewAdminHandler 创建一个新的 AdminHandler 实例
func NewAdminHandler(regionService *service.RegionService, statsService *service.StatsService, avatars *storage.AvatarStorage) *AdminHandler {
	return &AdminHandler{regionService, statsService, avatars}
}

var allowedAvatarExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Login 管理员登录，密码校验通过后签发令牌
func (h *AdminHandler) Login(c *gin.Context) {
	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "无效的请求数据", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.AppConfig.AdminPasswordHash), []byte(input.Password)); err != nil {
		errors.HandleError(c, errors.New(errors.ErrInvalidCredentials, "密码错误"))
		return
	}

	token, err := util.GenerateAdminToken()
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "签发令牌失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{"token": token}, "登录成功")
}

// GetRegion 查询社区的帖子频道配置
func (h *AdminHandler) GetRegion(c *gin.Context) {
	guildID := c.Param("guild_id")

	region, err := h.regionService.GetRegion(guildID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrDatabase, "查询社区配置失败", err))
		return
	}
	if region == nil {
		errors.HandleError(c, errors.New(errors.ErrRegionNotFound, "社区未配置"))
		return
	}

	errors.HandleSuccess(c, region, "")
}

// UpdateRegion 写入社区的帖子频道配置
func (h *AdminHandler) UpdateRegion(c *gin.Context) {
	guildID := c.Param("guild_id")

	var input struct {
		TweetChannelID string `json:"tweet_channel_id" binding:"required,tg_channel"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的频道ID", err))
		return
	}

	if err := h.regionService.SetTweetChannel(guildID, input.TweetChannelID); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrDatabase, "写入社区配置失败", err))
		return
	}

	errors.HandleSuccess(c, nil, "社区配置已更新")
}

// UploadAvatar 上传头像文件，返回可写入身份记录的引用和公开URL
func (h *AdminHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "无法获取上传文件", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAvatarExts[ext] {
		errors.HandleError(c, errors.New(errors.ErrValidation, "不支持的图片格式"))
		return
	}

	ref := uuid.NewString() + ext
	if _, err := h.avatars.UploadFile(file, ref); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "上传头像失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{
		"ref": ref,
		"url": h.avatars.URL(ref),
	}, "头像上传成功")
}

// GetStats 返回系统统计
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetSystemStats()
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrDatabase, "获取统计失败", err))
		return
	}

	errors.HandleSuccess(c, stats, "")
}
