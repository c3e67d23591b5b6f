package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/milkdesk/internal/logger"

	"go.uber.org/zap"
)

const defaultStopTimeout = 10 * time.Second

// Service 随进程启停的后台组件：HTTP 接口、刷新桥接、队列消费
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并行启动各组件，任一组件退出即整体停机
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器，忽略 nil 组件
func NewRunner(services ...Service) *Runner {
	runner := &Runner{}
	for _, svc := range services {
		if svc != nil {
			runner.services = append(runner.services, svc)
		}
	}
	return runner
}

type serviceExit struct {
	name string
	err  error
}

// Run 阻塞至 ctx 取消或某个组件退出，然后按注册顺序停止全部组件。
// HTTP 先于队列消费停止，停机期间不再接收新的发放与订单请求。
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = logger.S()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		go func(svc Service) {
			log.Infow("service_start", "service", svc.Name())
			exits <- serviceExit{name: svc.Name(), err: svc.Start(ctx)}
		}(svc)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("service_shutdown", "reason", context.Cause(ctx))
	case exit := <-exits:
		log.Infow("service_exit", "service", exit.name, "error", exit.err)
		if exit.err != nil && !errors.Is(exit.err, context.Canceled) {
			runErr = fmt.Errorf("%s: %w", exit.name, exit.err)
		}
	}
	cancel()

	if err := r.stopAll(stopTimeout, log); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) error {
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, svc := range r.services {
		if err := svc.Stop(ctx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.Name(), err))
		}
	}
	return errors.Join(errs...)
}
