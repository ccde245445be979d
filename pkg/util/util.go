package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成一个标准的 UUID (v4)
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShortUUID 生成一个不带中划线的短 UUID
func GenerateShortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateID 生成带前缀的短 ID（如 CS=会话，CL=对话日志，Q=查询）
func GenerateID(prefix string) string {
	id := GenerateShortUUID()
	if len(id) > 18 {
		id = id[:18]
	}
	return fmt.Sprintf("%s%s", prefix, id)
}
