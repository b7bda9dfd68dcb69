package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable マーカーストアへの問い合わせ失敗（リクエスト全体が失敗）
	ErrStoreUnavailable = errors.New("marker store unavailable")
	// ErrInvalidViewport 表示領域パラメータが不正
	ErrInvalidViewport = errors.New("invalid viewport")
	// ErrUnauthorized my=true で認証情報がない
	ErrUnauthorized = errors.New("authentication required")
)

// StoreError ストア操作の失敗。errors.Is(err, ErrStoreUnavailable) が真になる
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError errをStoreErrorで包む（既にStoreErrorならそのまま返す）
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
