package rewrite

import (
	"strconv"
	"strings"

	"github.com/John-Robertt/nftrenum/internal/domain"
	"github.com/John-Robertt/nftrenum/internal/metadata"
)

const (
	FieldName    = "name"
	FieldImage   = "image"
	FieldEdition = "edition"
)

// Rewriter 对模板元数据做逐 index 的字段改写。零值可用（使用默认 image 前缀）。
type Rewriter struct {
	imageBase string
	image     ImageParser
}

// New 构造 Rewriter；imageBase 为空时使用 DefaultImageBaseURL。
func New(imageBase string) *Rewriter {
	base := strings.TrimRight(strings.TrimSpace(imageBase), "/")
	if base == "" {
		base = DefaultImageBaseURL
	}
	return &Rewriter{imageBase: base, image: NewImageParser(base)}
}

// Rewrite 返回一个新文档：模板不会被修改。
//
// 规则：
// - name：匹配 nft-<token>#<digits> 时重组为 <prefix>#<index>（其后的内容丢弃）；存在但不匹配时整体替换为 nft-{label}#{index}
// - image：找到 <base>/<token>/images/<digits>.png 时只替换数字；否则整体替换为规范 URL
// - edition：存在即覆盖为 index（整数）
// - 其他字段原样保留
func (r *Rewriter) Rewrite(tmpl *metadata.Document, index int, c domain.Collection) *metadata.Document {
	if r == nil || r.image.re == nil {
		r = New("")
	}

	out := tmpl.Clone()
	num := strconv.Itoa(index)

	if out.Has(FieldName) {
		out.Set(FieldName, r.rewriteName(out, num, c))
	}
	if out.Has(FieldImage) {
		out.Set(FieldImage, r.rewriteImage(out, num, c))
	}
	if out.Has(FieldEdition) {
		out.Set(FieldEdition, index)
	}
	return out
}

func (r *Rewriter) rewriteName(d *metadata.Document, num string, c domain.Collection) string {
	if s, ok := d.GetString(FieldName); ok {
		if m, ok := ParseName(s); ok {
			return m.Prefix + num
		}
	}
	return "nft-" + c.Label() + "#" + num
}

func (r *Rewriter) rewriteImage(d *metadata.Document, num string, c domain.Collection) string {
	if s, ok := d.GetString(FieldImage); ok {
		if m, ok := r.image.Parse(s); ok {
			return m.Before + num + m.After
		}
	}
	return r.CanonicalImageURL(num, c)
}

// CanonicalImageURL 构造兜底 URL：{base}/{label}/images/{index}.png。
func (r *Rewriter) CanonicalImageURL(num string, c domain.Collection) string {
	return r.imageBase + "/" + c.Label() + "/images/" + num + ".png"
}

// Rewrite 使用默认 image 前缀改写。
func Rewrite(tmpl *metadata.Document, index int, c domain.Collection) *metadata.Document {
	return New("").Rewrite(tmpl, index, c)
}
