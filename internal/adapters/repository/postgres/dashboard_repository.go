package postgres

import (
	"context"
	"fmt"

	"github.com/ogurasousui/codex-task-review/internal/core/dashboard"
	pgdb "github.com/ogurasousui/codex-task-review/internal/platform/db/postgres"
)

// DashboardRepository はダッシュボード用の件数を集計します。
type DashboardRepository struct {
	pool pgdb.Queryer
}

// NewDashboardRepository は DashboardRepository を生成します。
func NewDashboardRepository(pool pgdb.Queryer) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// Counts は社員数・状態別・優先度別・社員別のタスク件数を取得します。
func (r *DashboardRepository) Counts(ctx context.Context) (*dashboard.Counts, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	counts := &dashboard.Counts{}
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&counts.TotalEmployees); err != nil {
		return nil, fmt.Errorf("postgres: count employees: %w", err)
	}

	byStatus, err := r.groupCount(ctx, exec, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count tasks by status: %w", err)
	}
	counts.ByStatus = byStatus

	byPriority, err := r.groupCount(ctx, exec, `SELECT priority, COUNT(*) FROM tasks GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count tasks by priority: %w", err)
	}
	counts.ByPriority = byPriority

	rows, err := exec.Query(ctx, `
        SELECT e.id,
               e.name,
               COUNT(*),
               COUNT(*) FILTER (WHERE t.status = 'completed')
          FROM tasks t
          JOIN employees e ON e.id = t.assigned_to
         GROUP BY e.id, e.name
    `)
	if err != nil {
		return nil, fmt.Errorf("postgres: count tasks by employee: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ec dashboard.EmployeeCounts
		if err := rows.Scan(&ec.EmployeeID, &ec.EmployeeName, &ec.TotalTasks, &ec.CompletedTasks); err != nil {
			return nil, fmt.Errorf("postgres: scan employee counts: %w", err)
		}
		counts.Employees = append(counts.Employees, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate employee counts: %w", err)
	}

	return counts, nil
}

func (r *DashboardRepository) groupCount(ctx context.Context, exec pgdb.Queryer, query string) (map[string]int, error) {
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
