// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Retention RetentionConfig `mapstructure:"retention"`
	Document  DocumentConfig  `mapstructure:"document"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Bot       BotConfig       `mapstructure:"bot"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// StorageConfig 存储文件存储相关的配置。
// BaseDir 为空时使用系统临时目录下的 geminiduck 子目录。
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// DispatchConfig 存储应答分发相关的阈值配置。
type DispatchConfig struct {
	ShortThreshold  int `mapstructure:"short_threshold"`  // 短应答阈值（字符）
	MediumThreshold int `mapstructure:"medium_threshold"` // 内联应答上限（字符）
	HardAnswerCap   int `mapstructure:"hard_answer_cap"`  // 应答硬上限，超出部分在渲染前截断
	MaxChunks       int `mapstructure:"max_chunks"`       // 分块发送的最大块数
	ChunkSize       int `mapstructure:"chunk_size"`       // 单块字符数
	ChunkDelayMs    int `mapstructure:"chunk_delay_ms"`   // 块间发送间隔（毫秒）
	RenderTimeoutS  int `mapstructure:"render_timeout_s"` // 单次文档渲染超时（秒）
	RenderWorkers   int `mapstructure:"render_workers"`   // 渲染工作池大小
}

// RetentionConfig 存储清理策略相关的配置。
type RetentionConfig struct {
	SweepIntervalHours int `mapstructure:"sweep_interval_hours"` // 工作区清理周期（小时）
	TempMaxAgeHours    int `mapstructure:"temp_max_age_hours"`   // 工作区文件最大存活（小时）
	DailyTempHours     int `mapstructure:"daily_temp_hours"`     // 每日清理时工作区文件最大存活（小时）
	HistoryMaxAgeDays  int `mapstructure:"history_max_age_days"` // 历史记录最大存活（天）
}

// DocumentConfig 存储文档构建相关的配置。
type DocumentConfig struct {
	WrapWidth         int    `mapstructure:"wrap_width"`          // 纯文本换行宽度（列）
	MaxLines          int    `mapstructure:"max_lines"`           // 文档最大行数
	PDFQuestionChars  int    `mapstructure:"pdf_question_chars"`  // PDF 问题摘录长度
	HTMLQuestionChars int    `mapstructure:"html_question_chars"` // HTML 问题摘录长度
	FontRegular       string `mapstructure:"font_regular"`        // 支持西里尔字母的 Unicode 字体
	FontBold          string `mapstructure:"font_bold"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	APIKey      string   `mapstructure:"api_key"`
	Models      []string `mapstructure:"models"` // 按优先级排列的候选模型列表
	Temperature float64  `mapstructure:"temperature"`
	TopP        float64  `mapstructure:"top_p"`
	MaxTokens   int      `mapstructure:"max_tokens"`
}

// BotConfig 存储机器人自身的展示信息。
type BotConfig struct {
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Alias    string `mapstructure:"alias"`
}

// Init 从指定路径加载配置文件并填充全局 Conf。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()

	// 允许环境变量覆盖，例如 LLM_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// 配置文件缺失时继续使用默认值，方便本地运行与测试
		fmt.Printf("警告: 读取配置文件失败, 使用默认配置: %v\n", err)
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}
}

// setDefaults 为所有阈值注册默认值，保证部分配置文件也能运行。
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("dispatch.short_threshold", 1000)
	viper.SetDefault("dispatch.medium_threshold", 3000)
	viper.SetDefault("dispatch.hard_answer_cap", 6000)
	viper.SetDefault("dispatch.max_chunks", 5)
	viper.SetDefault("dispatch.chunk_size", 1000)
	viper.SetDefault("dispatch.chunk_delay_ms", 500)
	viper.SetDefault("dispatch.render_timeout_s", 30)
	viper.SetDefault("dispatch.render_workers", 4)

	viper.SetDefault("retention.sweep_interval_hours", 3)
	viper.SetDefault("retention.temp_max_age_hours", 3)
	viper.SetDefault("retention.daily_temp_hours", 24)
	viper.SetDefault("retention.history_max_age_days", 7)

	viper.SetDefault("document.wrap_width", 80)
	viper.SetDefault("document.max_lines", 200)
	viper.SetDefault("document.pdf_question_chars", 300)
	viper.SetDefault("document.html_question_chars", 500)
	viper.SetDefault("document.font_regular", "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf")
	viper.SetDefault("document.font_bold", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf")

	viper.SetDefault("llm.base_url", "https://api.deepseek.com")
	viper.SetDefault("llm.models", []string{"deepseek-chat"})
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.top_p", 0.9)
	viper.SetDefault("llm.max_tokens", 4000)

	viper.SetDefault("bot.name", "GeminiDuck Bot")
	viper.SetDefault("bot.username", "geminiduck_bot")
	viper.SetDefault("bot.alias", "геминидак")
}
