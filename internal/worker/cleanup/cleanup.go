// Package cleanup は期限切れの認証データを削除するジョブを提供する。
// 期限切れのセッションと検証チャレンジを定期的に削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/recipebox/internal/metrics"
)

// DefaultInterval はジョブの既定の実行間隔。
const DefaultInterval = time.Hour

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// target は削除対象のテーブルとクエリ。
type target struct {
	table string
	query string
}

var targets = []target{
	{table: "sessions", query: `DELETE FROM sessions WHERE expires_at < now()`},
	{table: "verifications", query: `DELETE FROM verifications WHERE expires_at < now()`},
}

// CleanupJob は期限切れのセッションと検証チャレンジの削除ジョブ。
// 冪等であり、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	db        Executor
	logger    *slog.Logger
	collector metrics.MetricsCollector
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &CleanupJob{
		db:        db,
		logger:    logger,
		collector: collector,
	}
}

// Run は期限切れの行をテーブルごとに削除する。
// 途中のテーブルで失敗した場合はそこで中断してエラーを返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	counts := make([]any, 0, len(targets)+1)
	for _, t := range targets {
		result, err := j.db.ExecContext(ctx, t.query)
		if err != nil {
			j.logger.Error("クリーンアップジョブの実行に失敗しました",
				slog.String("error", err.Error()),
				slog.String("table", t.table),
			)
			return fmt.Errorf("%sのクリーンアップに失敗: %w", t.table, err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			j.logger.Error("削除件数の取得に失敗しました",
				slog.String("error", err.Error()),
				slog.String("table", t.table),
			)
			return fmt.Errorf("削除件数の取得に失敗: %w", err)
		}

		j.collector.RecordCleanupDeleted(t.table, deleted)
		counts = append(counts, slog.Int64(t.table+"_deleted", deleted))
	}

	counts = append(counts, slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())))
	j.logger.Info("クリーンアップジョブが完了しました", counts...)

	return nil
}

// Start はジョブを起動直後に1回実行し、以降intervalごとに実行する。
// ctxがキャンセルされるまでブロックする。個々の実行の失敗はログのみ。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
