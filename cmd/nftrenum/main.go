package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/nftrenum/internal/app/run"
	"github.com/John-Robertt/nftrenum/internal/config"
	"github.com/John-Robertt/nftrenum/internal/domain"
	"github.com/John-Robertt/nftrenum/internal/infra/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// execute 返回进程退出码：run 完成即为 0（无论集合成败），参数/配置错误为 1。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "错误：%v\n", err)
		return 1
	}
	return 0
}

type rootFlags struct {
	start      int
	end        int
	basePath   string
	only       string
	dryRun     bool
	configPath string
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "nftrenum",
		Short: "按编号批量复制 NFT 模板图片并改写元数据（burn: vnft-a，mint: vnft-b）",
		Long: `nftrenum 以 <base_path>/<集合目录>/input 下的 1.png 与 1.json 为模板，
为 [start, end] 中的每个编号写出 output/images/<i>.png 与 output/metadata/<i>.json。

两个集合依次处理（先 burn 后 mint）；某个集合缺少模板时只跳过该集合。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}

			flags := cmd.Flags()
			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				BasePath:    f.basePath,
				BasePathSet: flags.Changed("base_path"),
				Start:       f.start,
				StartSet:    flags.Changed("start"),
				End:         f.end,
				EndSet:      flags.Changed("end"),
				Only:        f.only,
				OnlySet:     flags.Changed("only"),
				DryRun:      f.dryRun,
				DryRunSet:   flags.Changed("dry-run"),
				LogLevel:    f.logLevel,
				LogLevelSet: flags.Changed("log-level"),
				ConfigPath:  f.configPath,
			})
			if err != nil {
				return err
			}

			interactive := isTerminal(stderr)
			logger := logx.New(stderr, eff.LogLevel, interactive)
			ctx := logger.WithContext(cmd.Context())
			if eff.ConfigFile != "" {
				logger.Debug().Str("config", eff.ConfigFile).Msg("已读取配置文件")
			}

			var obs run.Observer
			if interactive {
				obs = newProgressUI(stderr)
			}

			rr := run.ExecuteWithObserver(ctx, eff, obs)

			if interactive {
				fmt.Fprintln(stderr, renderSummaryTable(rr))
			}
			emitReport(stdout, stderr, rr)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.start, "start", config.DefaultStart, "起始编号（含）")
	flags.IntVar(&f.end, "end", config.DefaultEnd, "结束编号（含）")
	flags.StringVar(&f.basePath, "base_path", config.DefaultBasePath, "包含 vnft-a 与 vnft-b 的根目录")
	flags.StringVar(&f.only, "only", "", "只处理一个集合：burn|mint（默认两者都处理）")
	flags.BoolVar(&f.dryRun, "dry-run", false, "只列出将要写出的文件，不落盘")
	flags.StringVar(&f.configPath, "config", "", "配置文件路径（默认读取 <base_path>/"+config.FileName+"，可选）")
	flags.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "日志级别：debug|info|warn|error")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// emitReport：stdout 非 TTY 时必须且仅输出一个 RunReport JSON；TTY 时只打印一行摘要。
func emitReport(stdout, stderr io.Writer, rr domain.RunReport) {
	line := fmt.Sprintf("完成：processed=%d skipped=%d failed=%d planned=%d files=%d",
		rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Planned, rr.Summary.Files,
	)
	if isTerminal(stdout) {
		fmt.Fprintln(stdout, line)
		return
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rr); err != nil {
		fmt.Fprintf(stderr, "输出 report 失败：%v\n", err)
	}
	fmt.Fprintln(stderr, line)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
