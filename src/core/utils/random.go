package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TaskAlpha 任务ID字符集，与呼叫平台的 SID 风格一致（十六进制小写）
var TaskAlpha = []rune("0123456789abcdef")

// GenerateAlphaRandomKeyWithNanoid 字符集为空、超过255个字符或长度非正时返回错误
func GenerateAlphaRandomKeyWithNanoid(n int, keys []rune) (string, error) {
	return gonanoid.Generate(string(keys), n)
}
