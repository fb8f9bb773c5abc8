package debug

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino-ext/devops"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/config"
	"github.com/dyike/MomentumGo/internal/logging"
)

// devopsInit is swapped in tests so no server is started.
var devopsInit = func(ctx context.Context, port string) error {
	return devops.Init(ctx, devops.WithDevServerPort(port))
}

type EinoDebugger struct {
	config *config.Config
	logger *zap.Logger
}

func NewEinoDebugger(cfg *config.Config, logger *zap.Logger) *EinoDebugger {
	return &EinoDebugger{
		config: cfg,
		logger: logging.OrNop(logger).Named("eino_debug"),
	}
}

// Initialize starts the eino visual debug server. It must run before any
// graph is compiled so the graph gets registered.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}

	d.logger.Debug("initializing eino debug plugin", zap.Int("port", d.config.EinoDebugPort))
	if err := devopsInit(ctx, strconv.Itoa(d.config.EinoDebugPort)); err != nil {
		return fmt.Errorf("failed to initialize Eino debug plugin: %w", err)
	}
	d.logger.Info("eino debug server started", zap.String("url", d.GetDebugURL()))
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config != nil && d.config.EinoDebugEnabled
}

func (d *EinoDebugger) GetDebugURL() string {
	if !d.IsEnabled() {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
