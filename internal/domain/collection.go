package domain

import (
	"fmt"
	"strings"
)

// Collection 标识两套并行的资产集合之一。
//
// 集合类型必须显式传入生成器，不从目录路径推断。
type Collection int

const (
	Burn Collection = iota + 1
	Mint
)

// Collections 是固定的处理顺序：先 burn 后 mint。
var Collections = []Collection{Burn, Mint}

// Label 返回写入 name/image 兜底值时使用的标签（burn / mint）。
func (c Collection) Label() string {
	switch c {
	case Burn:
		return "burn"
	case Mint:
		return "mint"
	default:
		return ""
	}
}

// DefaultDir 返回集合在 base_path 下的默认目录名。
func (c Collection) DefaultDir() string {
	switch c {
	case Burn:
		return "vnft-a"
	case Mint:
		return "vnft-b"
	default:
		return ""
	}
}

func (c Collection) String() string {
	if l := c.Label(); l != "" {
		return l
	}
	return fmt.Sprintf("Collection(%d)", int(c))
}

// ParseCollection 把标签（大小写不敏感）解析为 Collection。
func ParseCollection(s string) (Collection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "burn":
		return Burn, true
	case "mint":
		return Mint, true
	default:
		return 0, false
	}
}
