package layout

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var (
	// ErrLogoDecode 表示徽标字节无法解码，排版应降级为无徽标。
	ErrLogoDecode = errors.New("layout: 徽标无法解码")
	// ErrInvalidGrid 表示网格参数不可用。
	ErrInvalidGrid = errors.New("layout: 网格参数无效")
)

// LogoState 记录一次排版中徽标的处理结果。
type LogoState string

const (
	LogoNone     LogoState = "none"
	LogoEmbedded LogoState = "embedded"
	LogoDegraded LogoState = "degraded"
)

// DecodeLogo 解码徽标字节。空输入返回 (nil, nil)；
// 无法识别或尺寸为零的图片返回包装了 ErrLogoDecode 的错误。
func DecodeLogo(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: 图片尺寸为零", ErrLogoDecode)
	}
	return img, nil
}
