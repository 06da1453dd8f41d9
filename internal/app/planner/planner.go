package planner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/John-Robertt/nftrenum/internal/domain"
	"github.com/John-Robertt/nftrenum/internal/infra/fsx"
)

const (
	// SourceName 是模板文件的固定文件名主干（1.png / 1.json）。
	SourceName = "1"
)

// SourceMissingError 表示集合目录缺少模板图片或模板元数据。
// 上层把它映射为 error_code=source_missing，并跳过整个集合。
type SourceMissingError struct {
	Kind string // "image" | "metadata"
	Path string
	Err  error
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("找不到模板%s文件：%s", kindText(e.Kind), e.Path)
}

func (e *SourceMissingError) Unwrap() error { return e.Err }

func IsSourceMissing(err error) bool {
	var e *SourceMissingError
	return errors.As(err, &e)
}

func kindText(kind string) string {
	switch kind {
	case "image":
		return "图片"
	case "metadata":
		return "元数据"
	default:
		return ""
	}
}

// NewLayout 根据集合目录计算固定布局（只做路径计算，不访问文件系统）。
func NewLayout(dir string) domain.Layout {
	dir = filepath.Clean(dir)
	return domain.Layout{
		Dir:            dir,
		InputImage:     filepath.Join(dir, "input", "images", SourceName+".png"),
		InputMetadata:  filepath.Join(dir, "input", "metadata", SourceName+".json"),
		OutputImages:   filepath.Join(dir, "output", "images"),
		OutputMetadata: filepath.Join(dir, "output", "metadata"),
	}
}

// Preflight 检查模板图片与模板元数据都存在且为普通文件（只做 stat，不读内容）。
// 检查顺序固定：先图片后元数据。
func Preflight(l domain.Layout) error {
	if err := checkSource("image", l.InputImage); err != nil {
		return err
	}
	return checkSource("metadata", l.InputMetadata)
}

func checkSource(kind, path string) error {
	err := fsx.RequireRegularFile(path)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) || fsx.IsPathTypeConflict(err) {
		return &SourceMissingError{Kind: kind, Path: path, Err: err}
	}
	return err
}

// PlanCollection 生成确定性的集合计划（不做任何写入）。
// 模板缺失时返回 *SourceMissingError。
func PlanCollection(c domain.Collection, dir string, r domain.IndexRange) (domain.CollectionPlan, error) {
	l := NewLayout(dir)
	if err := Preflight(l); err != nil {
		return domain.CollectionPlan{}, err
	}
	return domain.CollectionPlan{
		Collection: c,
		Layout:     l,
		Range:      r,
	}, nil
}
