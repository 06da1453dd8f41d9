package rewrite

import (
	"regexp"
	"strings"
)

// DefaultImageBaseURL 是 image 字段匹配与兜底构造使用的固定前缀。
const DefaultImageBaseURL = "https://0xmavillain.com/data/nft"

// name 形如 nft-<token>#<digits>，必须从字符串开头匹配。
// token 与数字都按 Unicode 字符类匹配。
var nameRE = regexp.MustCompile(`^(nft-[\p{L}\p{N}_-]+#)(\p{Nd}+)`)

// NameMatch 是 name 字段的结构化匹配结果。
// 重组规则：Prefix + <index>；数字串之后的内容不保留。
type NameMatch struct {
	Prefix string // "nft-burn#"
	Number string // 原始数字串
}

// ParseName 解析 name 字段。未匹配返回 ok=false（这是正常分支，不是错误）。
func ParseName(s string) (NameMatch, bool) {
	loc := nameRE.FindStringSubmatchIndex(s)
	if loc == nil {
		return NameMatch{}, false
	}
	return NameMatch{
		Prefix: s[loc[2]:loc[3]],
		Number: s[loc[4]:loc[5]],
	}, true
}

// ImageMatch 是 image URL 中编号片段的结构化匹配结果。
// 重组规则：Before + <index> + After。
type ImageMatch struct {
	Before string // 数字串之前的全部内容（含 ".../images/"）
	Number string
	After  string // 数字串之后的全部内容（以 ".png" 开头）
}

// ImageParser 在 URL 任意位置查找 <base>/<token>/images/<digits>.png。
type ImageParser struct {
	re *regexp.Regexp
}

// NewImageParser 以 base（例如 https://0xmavillain.com/data/nft）构造解析器。
// base 按字面量匹配，末尾的 '/' 会被忽略。
func NewImageParser(base string) ImageParser {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultImageBaseURL
	}
	return ImageParser{
		re: regexp.MustCompile(regexp.QuoteMeta(base) + `/[\p{L}\p{N}_]+/images/(\p{Nd}+)\.png`),
	}
}

// Parse 查找第一个匹配片段（不锚定）。
func (p ImageParser) Parse(s string) (ImageMatch, bool) {
	loc := p.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return ImageMatch{}, false
	}
	return ImageMatch{
		Before: s[:loc[2]],
		Number: s[loc[2]:loc[3]],
		After:  s[loc[3]:],
	}, true
}
