package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe 检查依赖是否可用
type Probe func(ctx context.Context) error

// RunProbe 按间隔执行探针并更新健康状态，ctx 结束时返回
func RunProbe(ctx context.Context, hs *health.Server, probe Probe, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	last := healthpb.HealthCheckResponse_UNKNOWN
	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		next := healthpb.HealthCheckResponse_SERVING
		if err := probe(probeCtx); err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
			if last != next {
				logger.Warn("依赖检查失败", "error", err)
			}
		}
		if next != last {
			hs.SetServingStatus(ServiceName, next)
			hs.SetServingStatus("", next)
			last = next
		}
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
