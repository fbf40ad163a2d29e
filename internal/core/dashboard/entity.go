package dashboard

// Counts はリポジトリが返す集計前の件数です。
type Counts struct {
	TotalEmployees int
	ByStatus       map[string]int
	ByPriority     map[string]int
	Employees      []EmployeeCounts
}

// EmployeeCounts は担当タスクを持つ社員ごとの件数です。
type EmployeeCounts struct {
	EmployeeID     string
	EmployeeName   string
	TotalTasks     int
	CompletedTasks int
}

// Summary はダッシュボードの集計結果です。
type Summary struct {
	TotalEmployees        int
	TotalTasks            int
	PendingTasks          int
	InProgressTasks       int
	AwaitingApprovalTasks int
	CompletedTasks        int
	CompletionRate        int
	TasksByPriority       map[string]int
	TasksByEmployee       []EmployeeStat
}

// EmployeeStat は社員ごとの進捗です。
type EmployeeStat struct {
	EmployeeID     string
	EmployeeName   string
	TotalTasks     int
	CompletedTasks int
	CompletionRate int
}
