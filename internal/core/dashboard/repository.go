package dashboard

import "context"

// Repository は集計用の件数を取得します。
type Repository interface {
	Counts(ctx context.Context) (*Counts, error)
}
