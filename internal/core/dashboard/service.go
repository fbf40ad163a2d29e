// Package dashboard はタスクの状態から進捗サマリを計算します。結果は保存せず要求ごとに再計算します。
package dashboard

import (
	"context"
	"math"
	"sort"

	"github.com/ogurasousui/codex-task-review/internal/core/access"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Service はダッシュボードのユースケースです。
type Service struct {
	repo Repository
	tx   TransactionManager
}

// UseCase はダッシュボードユースケースの公開インターフェースです。
type UseCase interface {
	GetSummary(ctx context.Context, p access.Principal) (*Summary, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, tx: tx}
}

// GetSummary は認証済みの呼び出し元に全体のサマリを返します。
func (s *Service) GetSummary(ctx context.Context, p access.Principal) (*Summary, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}

	var counts *Counts
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.Counts(txCtx)
		if err != nil {
			return err
		}
		counts = found
		return nil
	}); err != nil {
		return nil, err
	}

	return Summarize(counts), nil
}

// Summarize は件数からサマリを計算します。
// 社員別の一覧はタスク数の降順で、同数の場合は名前順に並べます。
func Summarize(c *Counts) *Summary {
	if c == nil {
		c = &Counts{}
	}

	total := 0
	for _, n := range c.ByStatus {
		total += n
	}
	completed := c.ByStatus[string(task.StatusCompleted)]

	byPriority := make(map[string]int, len(c.ByPriority))
	for k, v := range c.ByPriority {
		byPriority[k] = v
	}

	stats := make([]EmployeeStat, 0, len(c.Employees))
	for _, e := range c.Employees {
		stats = append(stats, EmployeeStat{
			EmployeeID:     e.EmployeeID,
			EmployeeName:   e.EmployeeName,
			TotalTasks:     e.TotalTasks,
			CompletedTasks: e.CompletedTasks,
			CompletionRate: rate(e.CompletedTasks, e.TotalTasks),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalTasks != stats[j].TotalTasks {
			return stats[i].TotalTasks > stats[j].TotalTasks
		}
		return stats[i].EmployeeName < stats[j].EmployeeName
	})

	return &Summary{
		TotalEmployees:        c.TotalEmployees,
		TotalTasks:            total,
		PendingTasks:          c.ByStatus[string(task.StatusPending)],
		InProgressTasks:       c.ByStatus[string(task.StatusInProgress)],
		AwaitingApprovalTasks: c.ByStatus[string(task.StatusAwaitingApproval)],
		CompletedTasks:        completed,
		CompletionRate:        rate(completed, total),
		TasksByPriority:       byPriority,
		TasksByEmployee:       stats,
	}
}

func rate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
