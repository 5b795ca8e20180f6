package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"puptime/config"
	"puptime/internal/handler"
	"puptime/internal/model"
	"puptime/internal/repository"
	"puptime/internal/service"
	dbPkg "puptime/pkg/db"
	"puptime/pkg/jwt"
	"puptime/pkg/logger"
	redisPkg "puptime/pkg/redis"
	"puptime/pkg/response"
	"puptime/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== pupTime后端启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.Duration("purge_delay", cfg.Scheduler.PurgeDelay),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化数据库连接
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(
		&model.User{},
		&model.InterestCategory{},
		&model.Friendship{},
		&model.Task{},
		&model.TaskRepetition{},
		&model.TaskHistory{},
	); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 3.2 初始化Redis（延迟清理队列依赖）
	if err := redisPkg.InitRedis(cfg.Redis); err != nil {
		log.Fatal("Redis连接失败", zap.Error(err))
	}
	defer func() {
		if err := redisPkg.Close(); err != nil {
			log.Error("关闭Redis连接失败", zap.Error(err))
		}
	}()
	log.Info("Redis连接成功")

	// 3.3 初始化业务服务
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	purgeQueue := redisPkg.NewPurgeQueue()

	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	userSvc := service.NewUserService(userRepo, jwtSvc)
	friendshipSvc := service.NewFriendshipService(
		friendshipRepo, userRepo, purgeQueue, websocket.GetManager(), cfg.Scheduler.PurgeDelay)
	taskSvc := service.NewTaskService(taskRepo)

	userHandler := handler.NewUserHandler(userSvc)
	friendshipHandler := handler.NewFriendshipHandler(friendshipSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)

	// 3.4 启动取消记录的延迟清理轮询
	purgeRunner := service.NewPurgeRunner(purgeQueue, friendshipSvc, cfg.Scheduler.PollInterval)
	if err := purgeRunner.Start(); err != nil {
		log.Fatal("清理任务调度启动失败", zap.Error(err))
	}
	defer purgeRunner.Stop()
	log.Info("延迟清理调度已启动", zap.Duration("poll_interval", cfg.Scheduler.PollInterval))

	// 4. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 5. 创建Gin路由
	router := gin.New()

	// 注入jwt/websocket配置到Gin context，供WebSocket握手使用
	router.Use(func(c *gin.Context) {
		c.Set("jwt_config", cfg.JWT)
		c.Set("ws_config", cfg.WebSocket)
		c.Next()
	})

	// 使用中间件
	router.Use(logger.LoggerMiddleware())      // 自定义日志中间件
	router.Use(logger.ErrorLoggerMiddleware()) // 错误日志中间件

	// 6. 基础路由
	setupBasicRoutes(router)

	// 6.1 业务路由
	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			// 公开接口（无需认证）
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的接口
			authUsers := users.Group("")
			authUsers.Use(jwtSvc.AuthMiddleware())
			{
				authUsers.GET("/profile", userHandler.GetProfile)
				authUsers.GET("/search", userHandler.SearchUsers)
				authUsers.GET("/:user_id", userHandler.GetUser)
				authUsers.PUT("/:user_id", userHandler.UpdateUser)
				authUsers.DELETE("/:user_id", userHandler.DeleteUser)
			}
		}

		// 好友关系路由（需要认证）
		friendships := v1.Group("/friendships")
		friendships.Use(jwtSvc.AuthMiddleware())
		{
			friendships.POST("", friendshipHandler.Request)                       // 发送好友请求
			friendships.GET("", friendshipHandler.ListFriends)                    // 好友列表
			friendships.GET("/pending", friendshipHandler.ListPending)            // 待处理请求
			friendships.GET("/blocked", friendshipHandler.ListBlocked)            // 拉黑列表
			friendships.PUT("/:friendship_id/accept", friendshipHandler.Accept)   // 接受请求
			friendships.DELETE("/:friendship_id", friendshipHandler.Cancel)       // 取消请求
			friendships.PUT("/:friendship_id/block", friendshipHandler.Block)     // 拉黑
			friendships.PUT("/:friendship_id/unblock", friendshipHandler.Unblock) // 解除拉黑
		}

		// 任务路由（需要认证）
		tasks := v1.Group("/tasks")
		tasks.Use(jwtSvc.AuthMiddleware())
		{
			tasks.POST("", taskHandler.Create)                        // 创建任务
			tasks.GET("", taskHandler.List)                           // 任务列表
			tasks.GET("/:task_id", taskHandler.Get)                   // 任务详情
			tasks.PUT("/:task_id", taskHandler.Update)                // 部分更新
			tasks.DELETE("/:task_id", taskHandler.Delete)             // 删除任务
			tasks.POST("/:task_id/complete", taskHandler.Complete)    // 标记完成
			tasks.POST("/:task_id/uncomplete", taskHandler.Uncomplete) // 删除完成记录
			tasks.GET("/:task_id/history", taskHandler.History)       // 完成记录
		}
	}

	// WebSocket路由（好友事件推送）
	router.GET("/ws", websocket.WsHandler)

	// 7. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 8. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}

// setupBasicRoutes 设置基础路由
func setupBasicRoutes(router *gin.Engine) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := dbPkg.HealthCheck(); err != nil {
			status = "db-down"
		} else if err := redisPkg.HealthCheck(); err != nil {
			status = "redis-down"
		}
		response.Success(c, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// 根路径
	router.GET("/", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pupTime backend",
			"version": "1.0.0",
		})
	})
}
