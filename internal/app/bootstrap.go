package app

import (
	"context"
	"errors"

	"github.com/mintcart/internal/config"
	"github.com/mintcart/internal/provider"
	"github.com/mintcart/internal/router"
)

// BuildRunner 构建服务运行器
func BuildRunner(ctx context.Context, cfg *config.Config) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}

	container := provider.NewContainer(ctx, cfg)

	engine := router.SetupRouter(cfg, container)
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	httpService := NewHTTPService(addr, engine)

	return NewRunner(httpService), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner, container, err := BuildRunner(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer container.Close()

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr)
	return RunWithOptions(runner, opts)
}
