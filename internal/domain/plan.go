package domain

import (
	"math"
	"path/filepath"
	"strconv"
)

// IndexRange 是闭区间 [Start, End]；Start > End 表示空区间（不是错误）。
type IndexRange struct {
	Start int
	End   int
}

func (r IndexRange) Empty() bool { return r.Start > r.End }

// Count 以 uint64 计算区间长度，不会溢出；超过 uint64 上限（仅全 int 区间）时饱和。
func (r IndexRange) Count() uint64 {
	if r.Empty() {
		return 0
	}
	d := uint64(r.End) - uint64(r.Start)
	if d == math.MaxUint64 {
		return d
	}
	return d + 1
}

// Fits 表示区间长度能用 int 表示。
func (r IndexRange) Fits() bool { return r.Count() <= math.MaxInt }

// Len 返回区间长度；长度超出 int 时饱和为 math.MaxInt（配置层会拒绝这类区间）。
func (r IndexRange) Len() int {
	if !r.Fits() {
		return math.MaxInt
	}
	return int(r.Count())
}

// Layout 描述单个集合目录下的固定文件布局。
//
// 不变量：所有路径都是 clean + absolute（由 planner 保证）。
type Layout struct {
	Dir string

	InputImage    string // <dir>/input/images/1.png
	InputMetadata string // <dir>/input/metadata/1.json

	OutputImages   string // <dir>/output/images
	OutputMetadata string // <dir>/output/metadata
}

// ItemPlan 是单个 index 的输出目标。
type ItemPlan struct {
	Index int

	ImageName    string // "{index}.png"
	MetadataName string // "{index}.json"

	ImagePath    string
	MetadataPath string
}

// CollectionPlan 是一个集合的执行计划（不做任何写入）。
type CollectionPlan struct {
	Collection Collection
	Layout     Layout
	Range      IndexRange
}

// Item 计算 index 对应的输出路径；不检查 index 是否在 Range 内。
func (p CollectionPlan) Item(index int) ItemPlan {
	n := strconv.Itoa(index)
	it := ItemPlan{
		Index:        index,
		ImageName:    n + ".png",
		MetadataName: n + ".json",
	}
	it.ImagePath = filepath.Join(p.Layout.OutputImages, it.ImageName)
	it.MetadataPath = filepath.Join(p.Layout.OutputMetadata, it.MetadataName)
	return it
}
