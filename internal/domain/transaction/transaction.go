package transaction

import (
	"context"
	"errors"
)

// ErrStorageUnavailable はストレージに一時的に到達できないことを表す
// リクエスト経路ではリトライせず呼び出し元に返す
var ErrStorageUnavailable = errors.New("ストレージが一時的に利用できません")

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
