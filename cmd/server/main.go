// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/internal/document"
	"gemini-duck-go/internal/handler"
	"gemini-duck-go/internal/middleware"
	"gemini-duck-go/internal/scheduler"
	"gemini-duck-go/internal/service"
	"gemini-duck-go/internal/storage"
	"gemini-duck-go/pkg/llm"
	"gemini-duck-go/pkg/log"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化产物存储
	store, err := storage.NewArtifactStore(cfg.Storage.BaseDir)
	if err != nil {
		log.Fatalf("产物存储初始化失败: %v", err)
	}

	// 4. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	sessions := service.NewSessionService()
	pdfBuilder := document.NewPDFBuilder(cfg.Document, cfg.Bot.Name)
	htmlBuilder := document.NewHTMLBuilder(cfg.Document, cfg.Bot.Name, cfg.Bot.Username)
	dispatchService := service.NewDispatchService(cfg.Dispatch, sessions, store, pdfBuilder, htmlBuilder)
	chatService := service.NewChatService(cfg.Bot, llmClient, sessions, dispatchService, store)

	// 5. 启动后台清理调度
	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	scheduler.New(cfg.Retention, store, sessions).Start(schedCtx)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 7. 注册路由
	botHandler := handler.NewBotHandler(chatService)
	apiV1 := r.Group("/api/v1")
	{
		bot := apiV1.Group("/bot")
		{
			bot.POST("/message", botHandler.Message)
			bot.POST("/format", botHandler.ChooseFormat)
			bot.POST("/register", botHandler.Register)
			bot.POST("/clear", botHandler.Clear)
			bot.GET("/status", botHandler.Status)
			bot.GET("/history/:userId", botHandler.History)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 停掉后台调度，再给在途请求 5 秒的收尾时间
	cancelSched()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已退出")
}
