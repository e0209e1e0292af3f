package errors

import "errors"

var (
	// ErrInvalidInput 请求参数不合法（例如坐标缺失或非有限数值），不会产生任何写入
	ErrInvalidInput = errors.New("参数不合法")

	// ErrStorageFailure 底层持久化失败，对外统一表现为服务器内部错误
	ErrStorageFailure = errors.New("存储操作失败")
)
