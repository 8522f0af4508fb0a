package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrUnknownChallengeType 挑战类型标签与注册表不匹配
// 表示数据与代码版本出现偏差，必须向上传播，不允许静默降级
var ErrUnknownChallengeType = errors.New("未知的挑战类型")

// IsDuplicateKey 判断错误是否为唯一约束冲突
// 依赖 gorm.Config.TranslateError 将驱动错误翻译为 gorm.ErrDuplicatedKey
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound 判断错误是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
