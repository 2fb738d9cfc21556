package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/Abukstech/folocom/internal/asset"
	"github.com/Abukstech/folocom/internal/category"
	"github.com/Abukstech/folocom/internal/common/config"
	"github.com/Abukstech/folocom/internal/common/db"
	"github.com/Abukstech/folocom/internal/common/logger"
	"github.com/Abukstech/folocom/internal/common/middleware"
	"github.com/Abukstech/folocom/internal/common/server"
	"github.com/Abukstech/folocom/internal/common/tracing"
	"github.com/Abukstech/folocom/internal/order"
	"github.com/Abukstech/folocom/internal/part"
	"github.com/Abukstech/folocom/internal/sourcing"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/gorilla/mux"
)

var (
	configPath  = flag.String("config", "configs/folocom-api.json", "配置文件路径")
	consulKVKey = flag.String("config-consul-key", "", "从 Consul KV 读取配置的 key（优先于本地文件）")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 指定了 Consul KV key 时用远端配置整体覆盖本地配置
	if *consulKVKey != "" {
		kvCfg, kvErr := config.LoadConfigFromConsulKV(cfg.Consul.Host, cfg.Consul.Port, *consulKVKey)
		if kvErr != nil {
			log.Warnf("failed to load config from consul kv, falling back to local: %v", kvErr)
		} else {
			cfg = kvCfg
		}
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&user.User{},
		&category.Category{},
		&part.Part{},
		&order.Order{},
		&order.OrderItem{},
		&sourcing.Request{},
	); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 图片托管
	assets, err := asset.NewCloudinaryStore(cfg.Cloudinary)
	if err != nil {
		log.Fatalf("failed to init cloudinary: %v", err)
	}

	// 路由
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	categoryRepo := category.NewRepo(gormDB)
	partRepo := part.NewRepo(gormDB)

	user.NewHandler(gormDB, cfg.Auth).RegisterRoutes(router)
	category.NewHandler(gormDB).RegisterRoutes(router)
	part.NewHandler(gormDB, categoryRepo, assets, log).RegisterRoutes(router)
	order.NewHandler(gormDB, partRepo).RegisterRoutes(router)
	sourcing.NewHandler(gormDB, assets, log).RegisterRoutes(router)

	// 中间件链：恢复 -> 追踪 -> 访问日志 -> 限流 -> 鉴权
	mws := []server.Middleware{
		server.Recovery(log),
		server.Tracing(cfg.Server.Name),
		server.AccessLog(log),
	}
	if cfg.RateLimit.Enabled {
		bucket := middleware.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		mws = append(mws, server.RateLimit(bucket))
	}
	if cfg.Auth.Enabled {
		mws = append(mws, server.JWTAuth(cfg.Auth, log))
	}
	handler := server.Chain(mws...)(router)

	if err := server.RunHTTPServer(cfg, log, handler); err != nil {
		log.Fatalf("folocom-api exited with error: %v", err)
	}
}
