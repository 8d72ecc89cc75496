package worker

import (
	"context"
	"errors"
	"time"

	"github.com/medcart/internal/config"
	"github.com/medcart/internal/logger"
	"github.com/medcart/internal/queue"
	"github.com/medcart/internal/repository"

	"github.com/hibiken/asynq"
)

const trackingSweepBatch = 200

// TrackingEnqueuer 物流轨迹刷新任务投递接口（*queue.Client 实现）
type TrackingEnqueuer interface {
	EnqueueOrderRefreshTracking(payload queue.OrderShipmentPayload, opts ...asynq.Option) error
}

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: time.Duration(cfg.TrackingSweepSeconds) * time.Second,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.sweepInterval > 0 && s.consumer != nil && s.consumer.Container != nil && s.consumer.QueueClient != nil {
		go runTrackingSweepLoop(ctx, s.sweepInterval, s.consumer.OrderRepo, s.consumer.QueueClient)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func runTrackingSweepLoop(ctx context.Context, interval time.Duration, orders repository.OrderRepository, enqueuer TrackingEnqueuer) {
	sweepTracking(orders, enqueuer, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepTracking(orders, enqueuer, interval)
		}
	}
}

// sweepTracking 为所有在途运单投递刷新任务，返回成功投递数量
func sweepTracking(orders repository.OrderRepository, enqueuer TrackingEnqueuer, interval time.Duration) int {
	if orders == nil || enqueuer == nil {
		return 0
	}
	rows, err := orders.ListTrackable(trackingSweepBatch)
	if err != nil {
		logger.Warnw("worker_tracking_sweep_list_failed", "error", err)
		return 0
	}
	var opts []asynq.Option
	if interval > 0 {
		opts = append(opts, asynq.Unique(interval))
	}
	enqueued := 0
	for _, order := range rows {
		err := enqueuer.EnqueueOrderRefreshTracking(queue.OrderShipmentPayload{OrderID: order.ID}, opts...)
		if err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			logger.Warnw("worker_tracking_sweep_enqueue_failed", "order_id", order.ID, "error", err)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		logger.Infow("worker_tracking_sweep_enqueued", "count", enqueued)
	}
	return enqueued
}
