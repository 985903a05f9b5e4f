package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"kicky/internal/analyzer"
	"kicky/internal/notes"
	"kicky/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "1.0.0"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kicky <input-dir> <output-dir>",
		Short: "按音高重命名底鼓采样",
		Long: `kicky 读取一个目录中的 WAV 底鼓采样，通过频谱峰值估计基频并换算为音名，
然后将原文件复制到输出目录，文件名中加入音名，例如 kick01.wav -> kick01 (C#).wav。

输入目录中的文件不会被移动或删除。`,
		Args:          cobra.ExactArgs(2),
		RunE:          runProcess,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认 $HOME/.kicky.yaml)")
	cmd.Flags().IntP("concurrency", "j", 1, "并发处理文件数量，1 为按顺序处理")
	cmd.Flags().String("collision", string(types.CollisionOverwrite), "输出文件重名时的策略: overwrite, suffix, error")
	cmd.Flags().Bool("mkdir", false, "输出目录不存在时自动创建")
	cmd.Flags().Bool("json", false, "以JSON格式输出结果")
	cmd.Flags().BoolP("quiet", "q", false, "静默模式，仅输出生成的文件路径")
	cmd.Flags().Bool("progress", false, "在 stderr 显示进度条")
	cmd.Flags().String("log-level", "warn", "日志级别: debug, info, warn, error")
	cmd.Flags().Float64("reference", notes.ReferenceFrequency, "音级 C 的参考频率 (Hz)")
	cmd.Flags().BoolP("version", "v", false, "显示版本信息")

	cmd.SetVersionTemplate("kicky version {{.Version}}\n")
	cmd.Version = version

	return cmd
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量，命令行参数优先
func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".kicky")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("KICKY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("绑定参数失败: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}
	return nil
}

// loadConfig 将 viper 中的值转换为分析器配置
func loadConfig(v *viper.Viper) (*types.AnalyzerConfig, error) {
	collision, err := types.ParseCollisionPolicy(v.GetString("collision"))
	if err != nil {
		return nil, err
	}

	config := &types.AnalyzerConfig{
		Concurrency:        v.GetInt("concurrency"),
		Collision:          collision,
		CreateOutput:       v.GetBool("mkdir"),
		ReferenceFrequency: v.GetFloat64("reference"),
		Quiet:              v.GetBool("quiet"),
		JSONOutput:         v.GetBool("json"),
		Progress:           v.GetBool("progress"),
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// newLogger 创建日志记录器，诊断信息与状态行分开输出
func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := initConfig(cmd, v); err != nil {
		return err
	}

	config, err := loadConfig(v)
	if err != nil {
		return err
	}

	logger, err := newLogger(v.GetString("log-level"), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"config":      v.ConfigFileUsed(),
		"concurrency": config.Concurrency,
		"collision":   config.Collision,
		"reference":   config.ReferenceFrequency,
	}).Debug("配置已加载")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	audioAnalyzer := analyzer.NewAnalyzer(config,
		analyzer.WithLogger(logger),
		analyzer.WithProgressWriter(cmd.ErrOrStderr()),
	)

	_, err = audioAnalyzer.Process(ctx, args[0], args[1], cmd.OutOrStdout())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("已取消")
		}
		return err
	}
	return nil
}
