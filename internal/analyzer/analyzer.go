package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"kicky/internal/decoder"
	"kicky/internal/fileutil"
	"kicky/internal/notes"
	"kicky/internal/types"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Analyzer 批量音高分析器
type Analyzer struct {
	config          *types.AnalyzerConfig
	decoderRegistry *decoder.DecoderRegistry
	classifier      *notes.Classifier
	logger          logrus.FieldLogger
	progressOut     io.Writer

	mu       sync.Mutex
	reserved map[string]bool // 本次运行已分配的输出路径，同一实例不应同时运行多个批次
}

// Option 分析器选项
type Option func(*Analyzer)

// WithLogger 注入日志记录器
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithClassifier 注入音名分类器
func WithClassifier(classifier *notes.Classifier) Option {
	return func(a *Analyzer) {
		a.classifier = classifier
	}
}

// WithDecoderRegistry 注入解码器注册表
func WithDecoderRegistry(registry *decoder.DecoderRegistry) Option {
	return func(a *Analyzer) {
		a.decoderRegistry = registry
	}
}

// WithProgressWriter 设置进度条输出位置，默认 stderr
func WithProgressWriter(w io.Writer) Option {
	return func(a *Analyzer) {
		a.progressOut = w
	}
}

// NewAnalyzer 创建新的分析器
func NewAnalyzer(config *types.AnalyzerConfig, opts ...Option) *Analyzer {
	if config == nil {
		config = &types.AnalyzerConfig{}
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	a := &Analyzer{
		config:          config,
		decoderRegistry: decoder.NewDecoderRegistry(),
		logger:          logrus.StandardLogger(),
		progressOut:     os.Stderr,
	}
	if config.ReferenceFrequency > 0 {
		a.classifier = notes.NewClassifier(config.ReferenceFrequency, notes.DefaultTable)
	} else {
		a.classifier = notes.Default()
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CheckPreconditions 检查输入与输出目录，失败时整个运行中止
func (a *Analyzer) CheckPreconditions(inputDir, outputDir string) error {
	if err := checkDir("检查输入目录", inputDir); err != nil {
		return err
	}

	err := checkDir("检查输出目录", outputDir)
	if err != nil && a.config.CreateOutput && outputDir != "" && errors.Is(err, os.ErrNotExist) {
		if mkErr := os.MkdirAll(outputDir, 0o755); mkErr != nil {
			return types.NewPreconditionError("创建输出目录", outputDir, mkErr)
		}
		a.logger.WithField("dir", outputDir).Info("已创建输出目录")
		return nil
	}
	return err
}

func checkDir(op, dir string) error {
	if dir == "" {
		return types.NewPreconditionError(op, dir, errors.New("未指定目录"))
	}
	info, err := os.Stat(dir)
	if err != nil {
		return types.NewPreconditionError(op, dir, err)
	}
	if !info.IsDir() {
		return types.NewPreconditionError(op, dir, errors.New("不是目录"))
	}
	return nil
}

// CollectFiles 列出输入目录下（不递归）所有受支持的音频文件
func (a *Analyzer) CollectFiles(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, types.NewPreconditionError("读取输入目录", inputDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if a.decoderRegistry.Supports(entry.Name()) {
			files = append(files, filepath.Join(inputDir, entry.Name()))
		}
	}
	return files, nil
}

// Prepare 检查前置条件并收集待处理文件
func (a *Analyzer) Prepare(inputDir, outputDir string) ([]string, error) {
	if err := a.CheckPreconditions(inputDir, outputDir); err != nil {
		return nil, err
	}
	return a.CollectFiles(inputDir)
}

// Stream 处理输入目录中的所有文件，按枚举顺序逐个发送结果
//
// 前置条件在返回前同步检查；之后单个文件的失败只体现在对应条目中。
// ctx 取消后不再开始新的文件，通道随即关闭。
func (a *Analyzer) Stream(ctx context.Context, inputDir, outputDir string) (<-chan *types.BatchItem, error) {
	files, err := a.Prepare(inputDir, outputDir)
	if err != nil {
		return nil, err
	}
	return a.streamFiles(ctx, files, outputDir), nil
}

// Run 处理输入目录并返回全部结果
func (a *Analyzer) Run(ctx context.Context, inputDir, outputDir string) ([]*types.BatchItem, error) {
	items, err := a.Stream(ctx, inputDir, outputDir)
	if err != nil {
		return nil, err
	}

	var results []*types.BatchItem
	for item := range items {
		results = append(results, item)
	}
	return results, ctx.Err()
}

// Process 处理输入目录并将状态行写入 w
func (a *Analyzer) Process(ctx context.Context, inputDir, outputDir string, w io.Writer) (*types.Summary, error) {
	files, err := a.Prepare(inputDir, outputDir)
	if err != nil {
		return nil, err
	}

	// 创建进度条
	var bar *progressbar.ProgressBar
	if a.config.Progress && !a.config.Quiet && !a.config.JSONOutput {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(a.progressOut),
			progressbar.OptionSetDescription("分析音频文件"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowIts(),
		)
	}

	if a.showStatusLines() {
		fmt.Fprintln(w, "Processing...")
	}

	summary := &types.Summary{}
	for item := range a.streamFiles(ctx, files, outputDir) {
		summary.Add(item)
		a.outputResult(w, item)
		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(a.progressOut)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	switch {
	case a.config.JSONOutput:
		a.writeJSON(w, map[string]*types.Summary{"summary": summary})
	case !a.config.Quiet:
		fmt.Fprintln(w, "Finished")
		a.printSummary(w, summary)
	}

	return summary, nil
}

func (a *Analyzer) showStatusLines() bool {
	return !a.config.Quiet && !a.config.JSONOutput
}

// streamFiles 按配置顺序或并发处理文件，结果保持枚举顺序
func (a *Analyzer) streamFiles(ctx context.Context, files []string, outputDir string) <-chan *types.BatchItem {
	a.mu.Lock()
	a.reserved = make(map[string]bool)
	a.mu.Unlock()

	out := make(chan *types.BatchItem)

	if a.config.Concurrency <= 1 {
		go func() {
			defer close(out)
			for i, filePath := range files {
				if ctx.Err() != nil {
					return
				}
				select {
				case out <- a.processFile(i, filePath, outputDir):
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}

	// 每个文件一个容量为 1 的槽位，工作协程写入后不会阻塞
	slots := make([]chan *types.BatchItem, len(files))
	for i := range slots {
		slots[i] = make(chan *types.BatchItem, 1)
	}

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		var g errgroup.Group
		g.SetLimit(a.config.Concurrency)
		for i, filePath := range files {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				slots[i] <- a.processFile(i, filePath, outputDir)
				return nil
			})
		}
		g.Wait()
	}()

	go func() {
		defer close(out)
		defer func() { <-dispatched }()
		for i := range slots {
			var item *types.BatchItem
			select {
			case item = <-slots[i]:
			case <-ctx.Done():
				return
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// processFile 分析单个文件并复制到输出目录
func (a *Analyzer) processFile(index int, filePath, outputDir string) *types.BatchItem {
	item := &types.BatchItem{
		Index:      index,
		SourcePath: filePath,
	}
	log := a.logger.WithField("file", filePath)

	// 解码音频文件
	waveform, err := a.decoderRegistry.DecodeWaveform(filePath)
	if err != nil {
		item.Fail(err)
		log.WithError(err).Warn("解码失败")
		return item
	}

	item.SampleRate = waveform.SampleRate
	item.Channels = waveform.Channels
	item.BitDepth = waveform.BitDepth
	item.Duration = waveform.Duration.Seconds()
	item.Format = waveform.Format

	item.Analysis = a.AnalyzeWaveform(waveform)
	log = log.WithFields(logrus.Fields{
		"sampleRate": waveform.SampleRate,
		"channels":   waveform.Channels,
		"format":     waveform.Format,
		"frequency":  item.Analysis.Frequency,
		"note":       item.Analysis.Note,
	})
	if item.Analysis.Frequency == 0 {
		log.Warn("未检测到音高")
	}

	name := fileutil.NoteFileName(filepath.Base(filePath), item.Analysis.Note)
	outPath, err := a.reserveOutput(outputDir, name)
	if err != nil {
		item.Fail(err)
		log.WithError(err).Warn("无法确定输出文件")
		return item
	}

	if err := fileutil.CopyFile(filePath, outPath); err != nil {
		item.Fail(err)
		log.WithError(err).Warn("复制失败")
		return item
	}

	item.Status = types.StatusOK
	item.OutputName = filepath.Base(outPath)
	item.OutputPath = outPath
	log.WithField("output", outPath).Debug("处理完成")
	return item
}

// AnalyzeWaveform 预处理、估计基频并映射为音名
func (a *Analyzer) AnalyzeWaveform(waveform *types.Waveform) types.AnalysisResult {
	conditioned := Condition(waveform.Samples, waveform.SampleRate)
	freq := EstimatePeakFrequency(conditioned, waveform.SampleRate)
	return types.AnalysisResult{
		Frequency: freq,
		Note:      a.classifier.Classify(freq),
	}
}

// reserveOutput 按重名策略分配输出路径，同一次运行内不会重复分配
func (a *Analyzer) reserveOutput(outputDir, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	taken := func(path string) bool {
		return a.reserved[path] || fileutil.FileExists(path)
	}
	path, err := fileutil.ResolveOutputPath(outputDir, name, a.config.Collision, taken)
	if err != nil {
		return "", err
	}
	a.reserved[path] = true
	return path, nil
}

// outputResult 输出单个结果
func (a *Analyzer) outputResult(w io.Writer, item *types.BatchItem) {
	// 静默模式，只输出生成的文件路径
	if a.config.Quiet {
		if item.Status == types.StatusOK {
			fmt.Fprintln(w, item.OutputPath)
		}
		return
	}

	if a.config.JSONOutput {
		a.writeJSON(w, item)
		return
	}

	fmt.Fprintln(w, item.StatusLine())
}

func (a *Analyzer) writeJSON(w io.Writer, v any) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		a.logger.WithError(err).Error("JSON序列化失败")
		return
	}
	fmt.Fprintln(w, string(jsonData))
}

// printSummary 打印统计摘要
func (a *Analyzer) printSummary(w io.Writer, s *types.Summary) {
	fmt.Fprintf(w, "\n=== 统计 ===\n")
	fmt.Fprintf(w, "总文件数: %d\n", s.Total)
	fmt.Fprintf(w, "已处理: %d\n", s.Processed)
	if s.Unknown > 0 {
		fmt.Fprintf(w, "未检测到音高: %d\n", s.Unknown)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "失败: %d\n", s.Failed)
	}
}
