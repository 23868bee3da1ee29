package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/heyirisdotdev/hades-kitten/config"
	"github.com/heyirisdotdev/hades-kitten/internal/api/admin"
	"github.com/heyirisdotdev/hades-kitten/internal/chat/telegram"
	"github.com/heyirisdotdev/hades-kitten/internal/common"
	"github.com/heyirisdotdev/hades-kitten/internal/middleware"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/mysql"
	"github.com/heyirisdotdev/hades-kitten/internal/service"
	"github.com/heyirisdotdev/hades-kitten/internal/storage"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

func main() {
	// 在 main 函数开始处添加
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel, config.AppConfig.Debug)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接，数据库尚未就绪时重试
	if err := common.WithRetry(db.Ping, 5); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	util.Logger.Info("数据库连接池配置完成")

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("tg_channel", util.ValidateTGChannelID)
	}

	// 初始化头像存储
	avatars, err := storage.NewAvatarStorage(config.AppConfig.AvatarStoragePath, config.AppConfig.BackendURL)
	if err != nil {
		util.Logger.Fatal("初始化头像存储失败", zap.Error(err))
	}

	// 初始化聊天客户端
	bot, err := telegram.New(config.AppConfig.BotToken)
	if err != nil {
		util.Logger.Fatal("初始化机器人失败", zap.Error(err))
	}

	// 初始化存储库、服务和路由器
	profileRepo := mysql.NewProfileRepository(db)
	tweetRepo := mysql.NewTweetRepository(db)
	regionRepo := mysql.NewRegionRepository(db)

	composer := service.NewComposeService(profileRepo, tweetRepo, regionRepo, bot, avatars)
	replier := service.NewReplyService(profileRepo, tweetRepo, regionRepo, bot, avatars)
	liker := service.NewLikeService(profileRepo, tweetRepo, bot)
	mirror := service.NewMirrorService(profileRepo, tweetRepo, bot)
	viewer := service.NewProfileService(profileRepo, bot, avatars)
	router := service.NewRouter(tweetRepo, bot, composer, replier, liker, mirror, viewer)

	regionService := service.NewRegionService(regionRepo)
	statsService := service.NewStatsService(profileRepo, tweetRepo)
	adminHandler := admin.NewAdminHandler(regionService, statsService, avatars)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	r.Use(cors.New(corsConfig))

	// 头像静态文件的CORS
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/avatars/") {
			c.Header("Access-Control-Allow-Origin", config.AppConfig.FrontendURL)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(200)
				return
			}
		}
		c.Next()
	})

	// 配置静态文件服务
	r.Static("/avatars", avatars.BasePath())

	// 定义 API 路由
	api := r.Group("/api")
	{
		api.POST("/admin/login", adminHandler.Login)

		authorized := api.Group("/admin")
		authorized.Use(middleware.AdminAuthMiddleware())
		{
			authorized.GET("/regions/:guild_id", adminHandler.GetRegion)
			authorized.PUT("/regions/:guild_id", adminHandler.UpdateRegion)
			authorized.POST("/avatars", adminHandler.UploadAvatar)
			authorized.GET("/stats", adminHandler.GetStats)
		}
	}

	srv := &http.Server{
		Addr:    config.AppConfig.HTTPAddr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 机器人和HTTP服务并行运行，任一退出即整体退出
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		util.Logger.Info("机器人开始轮询")
		return bot.Run(gctx, router)
	})

	g.Go(func() error {
		util.Logger.Info("HTTP服务启动", zap.String("addr", config.AppConfig.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		util.Logger.Info("开始优雅关闭")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		util.Logger.Error("服务退出", zap.Error(err))
	}
	util.Logger.Info("应用程序已退出")
}
