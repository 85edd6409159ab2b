package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/mitm-cache/mitm-cache/internal/auth"
	"github.com/mitm-cache/mitm-cache/internal/cache"
	"github.com/mitm-cache/mitm-cache/internal/config"
	"github.com/mitm-cache/mitm-cache/internal/fetch"
	"github.com/mitm-cache/mitm-cache/internal/listing"
	"github.com/mitm-cache/mitm-cache/internal/logging"
	"github.com/mitm-cache/mitm-cache/internal/proxy"
	"github.com/mitm-cache/mitm-cache/internal/server"
	"github.com/mitm-cache/mitm-cache/internal/server/routes"
	"github.com/mitm-cache/mitm-cache/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// service 聚合启动阶段构建的全部组件，缓存实例在整个进程生命周期内只创建一次。
type service struct {
	app    *fiber.App
	store  *cache.Store
	logger *logrus.Logger
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	guard := auth.NewGuard(auth.EnvSecret(cfg.Global.SecretEnv))

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["fetch_policy"] = cfg.Global.FetchPolicy
		fields["auth_mode"] = guard.Mode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	svc, err := buildService(cfg, guard, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "构建服务失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["fetch_policy"] = cfg.Global.FetchPolicy
	fields["max_entries"] = cfg.Global.MaxEntries
	fields["auth_mode"] = guard.Mode()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, svc, cfg.Global.ListenPort); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildService 按“缓存 → 回源 → 编排 → Fiber app”的顺序组装组件。
func buildService(cfg *config.Config, guard *auth.Guard, logger *logrus.Logger) (*service, error) {
	policy, err := proxy.ParsePolicy(cfg.Global.FetchPolicy)
	if err != nil {
		return nil, err
	}

	store := cache.NewStore(cache.WithMaxEntries(cfg.Global.MaxEntries))
	fetcher := fetch.NewHTTPFetcher(fetch.NewClient(cfg.Global.UpstreamTimeout.DurationValue()))
	orchestrator := proxy.NewOrchestrator(store, fetcher, logger, policy)

	app, err := server.NewApp(server.AppOptions{
		Logger:           logger,
		Guard:            guard,
		Proxy:            orchestrator,
		Lister:           listing.NewLister(store, store.Now),
		CredentialHeader: cfg.Global.CredentialHeader,
		ListenPort:       cfg.Global.ListenPort,
		Register: func(app *fiber.App) {
			routes.RegisterStatusRoutes(app, routes.StatusOptions{
				Guard:            guard,
				CredentialHeader: cfg.Global.CredentialHeader,
				Store:            store,
				FetchPolicy:      string(policy),
				MaxEntries:       cfg.Global.MaxEntries,
			})
		},
	})
	if err != nil {
		return nil, err
	}
	return &service{app: app, store: store, logger: logger}, nil
}

// serve 监听端口直到 ctx 被取消，随后优雅关闭；缓存随进程退出丢弃。
func serve(ctx context.Context, svc *service, port int) error {
	errCh := make(chan error, 1)
	go func() {
		svc.logger.WithFields(logrus.Fields{
			"action": "listen",
			"port":   port,
		}).Info("Fiber 服务启动")
		errCh <- svc.app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	svc.logger.WithFields(logrus.Fields{
		"action":  "shutdown",
		"entries": svc.store.Len(),
	}).Info("服务已停止，内存缓存已丢弃")
	return nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("mitm-cache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（可被 MITM_CACHE_CONFIG 覆盖，留空则只使用默认值与环境变量）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("MITM_CACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}
