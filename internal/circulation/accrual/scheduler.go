package accrual

import (
	"context"
	"log"
	"time"
)

// Scheduler は Reconcile を定期実行するジョブ。
// 一覧取得APIから副作用を切り離したので、再計算はここか管理API経由でのみ走る。
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	clock    Clock

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: interval,
		clock:    realClock{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start は起動直後に1回実行し、以後 interval ごとに回す
func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce()
		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop は実行中のパスが終わるのを待って止める
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// 失敗してもプロセスは落とさない。罰金が古いまま残るだけで、次回で追いつく
func (s *Scheduler) runOnce() {
	sum, err := s.engine.Reconcile(context.Background(), s.clock.Now())
	if err != nil {
		log.Printf("[WARN] fine reconcile failed: %v", err)
		return
	}
	log.Printf("[INFO] fine reconcile: scanned=%d created=%d updated=%d", sum.Scanned, sum.Created, sum.Updated)
}
