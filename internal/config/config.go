package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/nftrenum/internal/domain"
	"github.com/John-Robertt/nftrenum/internal/infra/logx"
	"github.com/John-Robertt/nftrenum/internal/rewrite"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或参数/字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是 base_path 下可选配置文件的固定文件名。
	FileName = "nftrenum.toml"

	DefaultStart    = 0
	DefaultEnd      = 1000
	DefaultBasePath = "C:/villain-burn-nft"
	DefaultLogLevel = "info"
)

// CLIArgs 是命令行入口参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run=false 必须能覆盖配置文件中的 dry_run = true。
type CLIArgs struct {
	BasePath    string
	BasePathSet bool

	Start    int
	StartSet bool
	End      int
	EndSet   bool

	Only    string
	OnlySet bool

	DryRun    bool
	DryRunSet bool

	LogLevel    string
	LogLevelSet bool

	// ConfigPath 非空时必须存在；为空时尝试读取 <base_path>/nftrenum.toml（可选）。
	ConfigPath string
}

// FileConfig 对应 nftrenum.toml 的解析结构。
type FileConfig struct {
	BasePath     string     `toml:"base_path"`
	Start        *int       `toml:"start"`
	End          *int       `toml:"end"`
	Only         string     `toml:"only"`
	DryRun       *bool      `toml:"dry_run"`
	ImageBaseURL string     `toml:"image_base_url"`
	LogLevel     string     `toml:"log_level"`
	Dirs         DirsConfig `toml:"dirs"`
}

// DirsConfig 覆盖两个集合在 base_path 下的目录名。
type DirsConfig struct {
	Burn string `toml:"burn"`
	Mint string `toml:"mint"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	BasePath string
	Start    int
	End      int

	// Collections 是本次要处理的集合（固定顺序：burn、mint）。
	Collections []domain.Collection
	// Dirs 是集合到目录名（单层）的映射。
	Dirs map[domain.Collection]string

	DryRun       bool
	ImageBaseURL string
	LogLevel     string

	// ConfigFile 是实际读取到的配置文件路径；未读取任何文件时为空。
	ConfigFile string
}

// CollectionDir 返回集合目录的绝对路径。
func (e EffectiveConfig) CollectionDir(c domain.Collection) string {
	name := e.Dirs[c]
	if name == "" {
		name = c.DefaultDir()
	}
	return filepath.Join(e.BasePath, name)
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 指定 --config：必须存在
// 2) 否则读取 <base_path>/nftrenum.toml（可选），base_path 取 CLI 值或默认值
//
// 覆盖优先级：CLI（显式指定） > 配置文件 > 内置默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)

	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		base := DefaultBasePath
		if cli.BasePathSet {
			base = cli.BasePath
		}
		cfgPath = filepath.Join(absCleanFrom(cwdAbs, base), FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		// 位于 base_path 内的配置文件不能再改写 base_path 本身。
		fc.BasePath = ""
	}
	if !exists {
		cfgPath = ""
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	basePath := DefaultBasePath
	if cli.BasePathSet {
		basePath = cli.BasePath
	} else if strings.TrimSpace(fc.BasePath) != "" {
		basePath = fc.BasePath
	}
	if strings.TrimSpace(basePath) == "" {
		return EffectiveConfig{}, invalid(errors.New("base_path 不能为空"))
	}

	start := DefaultStart
	if cli.StartSet {
		start = cli.Start
	} else if fc.Start != nil {
		start = *fc.Start
	}
	end := DefaultEnd
	if cli.EndSet {
		end = cli.End
	} else if fc.End != nil {
		end = *fc.End
	}

	if r := (domain.IndexRange{Start: start, End: end}); !r.Fits() {
		return EffectiveConfig{}, invalid(fmt.Errorf("start..end 区间过大：%d..%d 共 %d 个编号", start, end, r.Count()))
	}

	only := fc.Only
	if cli.OnlySet {
		only = cli.Only
	}
	collections, err := parseOnly(only)
	if err != nil {
		return EffectiveConfig{}, invalid(err)
	}

	dryRun := false
	if cli.DryRunSet {
		dryRun = cli.DryRun
	} else if fc.DryRun != nil {
		dryRun = *fc.DryRun
	}

	logLevel := DefaultLogLevel
	if cli.LogLevelSet {
		logLevel = cli.LogLevel
	} else if strings.TrimSpace(fc.LogLevel) != "" {
		logLevel = fc.LogLevel
	}
	logLevel = strings.ToLower(strings.TrimSpace(logLevel))
	if !logx.ValidLevel(logLevel) {
		return EffectiveConfig{}, invalid(fmt.Errorf("log_level 无法识别：%q", logLevel))
	}

	imageBase := strings.TrimRight(strings.TrimSpace(fc.ImageBaseURL), "/")
	if imageBase == "" {
		imageBase = rewrite.DefaultImageBaseURL
	} else if err := validateHTTPURL(imageBase); err != nil {
		return EffectiveConfig{}, invalid(fmt.Errorf("image_base_url 无效：%w", err))
	}

	dirs := map[domain.Collection]string{
		domain.Burn: domain.Burn.DefaultDir(),
		domain.Mint: domain.Mint.DefaultDir(),
	}
	if v := strings.TrimSpace(fc.Dirs.Burn); v != "" {
		dirs[domain.Burn] = v
	}
	if v := strings.TrimSpace(fc.Dirs.Mint); v != "" {
		dirs[domain.Mint] = v
	}
	for _, c := range domain.Collections {
		if err := validateDirName(dirs[c]); err != nil {
			return EffectiveConfig{}, invalid(fmt.Errorf("dirs.%s 无效：%w", c.Label(), err))
		}
	}
	if dirs[domain.Burn] == dirs[domain.Mint] {
		return EffectiveConfig{}, invalid(fmt.Errorf("dirs.burn 与 dirs.mint 不能相同：%q", dirs[domain.Burn]))
	}

	return EffectiveConfig{
		BasePath:     absCleanFrom(cwdAbs, basePath),
		Start:        start,
		End:          end,
		Collections:  collections,
		Dirs:         dirs,
		DryRun:       dryRun,
		ImageBaseURL: imageBase,
		LogLevel:     logLevel,
		ConfigFile:   cfgPath,
	}, nil
}

// parseOnly：空串表示两个集合都处理。
func parseOnly(s string) ([]domain.Collection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return append([]domain.Collection(nil), domain.Collections...), nil
	}
	c, ok := domain.ParseCollection(s)
	if !ok {
		return nil, fmt.Errorf("only 只能是 burn 或 mint，实际是 %q", s)
	}
	return []domain.Collection{c}, nil
}

func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", s)
	}
	if u.Host == "" {
		return fmt.Errorf("缺少 host：%q", s)
	}
	return nil
}

func validateDirName(name string) error {
	switch {
	case name == "":
		return errors.New("不能为空")
	case name == "." || name == "..":
		return fmt.Errorf("不能是 %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("必须是单层目录名：%q", name)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
