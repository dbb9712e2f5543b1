// Package qr 把标签载荷编码为二维码位图。
package qr

import (
	"errors"
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultPixels 为二维码位图的默认边长（像素）。
const DefaultPixels = 256

// ErrEmptyPayload 表示载荷为空。
var ErrEmptyPayload = errors.New("qr: 载荷为空")

// Encode 以中等纠错级别生成边长 px 的二维码位图。
func Encode(payload string, px int) (image.Image, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if px <= 0 {
		px = DefaultPixels
	}
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: 编码失败: %w", err)
	}
	return code.Image(px), nil
}
