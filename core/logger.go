package core

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pathway-gateway/core/failover"
	"pathway-gateway/models"
)

// AttemptRecorder 异步把每次上游尝试写入 attempt_logs 表
// 实现 failover.Observer，队列满时丢弃记录，不阻塞请求
type AttemptRecorder struct {
	db        *gorm.DB
	logChan   chan *models.AttemptLog
	logger    *logrus.Logger
	batchSize int
	flushTime time.Duration
	keep      int
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
}

// NewAttemptRecorder keep 为表中保留的最新记录数，<=0 表示不清理
func NewAttemptRecorder(db *gorm.DB, logger *logrus.Logger, keep int) *AttemptRecorder {
	r := &AttemptRecorder{
		db:        db,
		logChan:   make(chan *models.AttemptLog, 1000),
		logger:    logger,
		batchSize: 100,
		flushTime: 5 * time.Second,
		keep:      keep,
		quit:      make(chan struct{}),
	}
	r.startWorker()
	return r
}

func (r *AttemptRecorder) ObserveAttempt(ctx context.Context, a failover.Attempt) {
	row := &models.AttemptLog{
		CreatedAt:  time.Now(),
		RequestID:  RequestIDFrom(ctx),
		Provider:   a.Provider,
		Attempt:    a.Ordinal,
		PoolSize:   a.PoolSize,
		KeyOrdinal: a.KeyOrdinal,
		MaskedKey:  a.MaskedKey,
		Outcome:    a.Outcome.String(),
		DurationMs: a.Duration.Milliseconds(),
	}
	if a.Err != nil {
		row.ErrorMsg = truncateMsg(a.Err.Error(), 512)
	}
	r.Record(row)
}

// Record 提交记录到队列
func (r *AttemptRecorder) Record(row *models.AttemptLog) {
	select {
	case <-r.quit:
		return
	default:
	}
	select {
	case r.logChan <- row:
	default:
		r.logger.Warn("Attempt log channel full, dropping record")
	}
}

func (r *AttemptRecorder) startWorker() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.workerLoop()
	}()
}

func (r *AttemptRecorder) workerLoop() {
	var batch []*models.AttemptLog
	ticker := time.NewTicker(r.flushTime)
	defer ticker.Stop()

	for {
		select {
		case row := <-r.logChan:
			batch = append(batch, row)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = nil
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = nil
			}
		case <-r.quit:
			// 退出前取完队列中剩余的记录
			for {
				select {
				case row := <-r.logChan:
					batch = append(batch, row)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

func (r *AttemptRecorder) flush(rows []*models.AttemptLog) {
	if len(rows) == 0 {
		return
	}
	r.logger.Debugf("[Recorder] Flushing %d attempt logs to DB...", len(rows))

	if err := r.db.CreateInBatches(rows, len(rows)).Error; err != nil {
		r.logger.Errorf("[Recorder] Failed to flush attempt logs: %v", err)
		return
	}
	r.prune()
}

// prune 只保留最新的 keep 条
func (r *AttemptRecorder) prune() {
	if r.keep <= 0 {
		return
	}
	var count int64
	if err := r.db.Model(&models.AttemptLog{}).Count(&count).Error; err != nil || count <= int64(r.keep) {
		return
	}
	var pivotID uint
	if err := r.db.Model(&models.AttemptLog{}).Select("id").Order("id desc").Offset(r.keep).Limit(1).Scan(&pivotID).Error; err != nil {
		r.logger.Errorf("[Recorder] Failed to find prune pivot: %v", err)
		return
	}
	if pivotID > 0 {
		if err := r.db.Where("id <= ?", pivotID).Delete(&models.AttemptLog{}).Error; err != nil {
			r.logger.Errorf("[Recorder] Failed to prune attempt logs: %v", err)
		}
	}
}

// Close 刷新剩余记录并停止后台 Worker，可重复调用
func (r *AttemptRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.quit)
		r.wg.Wait()
	})
}

func truncateMsg(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
