package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Trend      TrendConfig      `yaml:"trend"`
	Understand UnderstandConfig `yaml:"understand"`
	Generate   GenerateConfig   `yaml:"generate"`
	Quality    QualityConfig    `yaml:"quality"`
	Server     ServerConfig     `yaml:"server"`

	Env Env `yaml:"-"`
}

type PathsConfig struct {
	Output        string `yaml:"output"`
	GameplayDir   string `yaml:"gameplay_dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	KeywordFile   string `yaml:"aso_file"`
	GameFile      string `yaml:"game_file"`
}

type TrendConfig struct {
	Source      string `yaml:"source"` // "reddit" or "none"
	MaxKeywords int    `yaml:"max_keywords"`
	TopK        int    `yaml:"top_k"`
	MaxHashtags int    `yaml:"max_hashtags"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// Timeout bounds every live trend-source call.
func (c TrendConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

type UnderstandConfig struct {
	MaxFrames            int    `yaml:"max_frames"`
	Workers              int    `yaml:"workers"`
	CaptionModel         string `yaml:"caption_model"`
	WhisperModel         string `yaml:"whisper_model"`
	CaptionTimeoutSec    int    `yaml:"caption_timeout_sec"`
	TranscribeTimeoutSec int    `yaml:"transcribe_timeout_sec"`
}

func (c UnderstandConfig) CaptionTimeout() time.Duration {
	return time.Duration(c.CaptionTimeoutSec) * time.Second
}

func (c UnderstandConfig) TranscribeTimeout() time.Duration {
	return time.Duration(c.TranscribeTimeoutSec) * time.Second
}

type GenerateConfig struct {
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

func (c GenerateConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

type QualityConfig struct {
	TitleMaxChars   int `yaml:"title_max_chars"`
	CaptionMaxChars int `yaml:"caption_max_chars"`
	HashtagMin      int `yaml:"hashtag_min"`
	HashtagMax      int `yaml:"hashtag_max"`
	TargetWidth     int `yaml:"target_width"`
	TargetHeight    int `yaml:"target_height"`
	MaxImages       int `yaml:"max_images"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Env is the environment-provided configuration, read once at process start.
// No component reads the environment directly after this.
type Env struct {
	OpenAIAPIKey   string
	DriveCredsJSON string
	DriveFolderID  string
	Environment    string
	LogLevel       string
}

// Load reads the optional config file and environment and returns a fully
// defaulted Config. A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	cfg.applyDefaults()
	cfg.Env = envFromProcess()
	return &cfg, nil
}

func envFromProcess() Env {
	return Env{
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		DriveCredsJSON: os.Getenv("DRIVE_CREDS_JSON"),
		DriveFolderID:  os.Getenv("DRIVE_FOLDER_ID"),
		Environment:    os.Getenv("APP_ENV"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
	}
}

func (c *Config) applyDefaults() {
	if c.Paths.Output == "" {
		c.Paths.Output = "./outputs"
	}
	if c.Paths.GameplayDir == "" {
		c.Paths.GameplayDir = "./Gameplay"
	}
	if c.Paths.ScreenshotDir == "" {
		c.Paths.ScreenshotDir = "./screenshot"
	}
	if c.Paths.KeywordFile == "" {
		c.Paths.KeywordFile = "./asokeywords.txt"
	}
	if c.Paths.GameFile == "" {
		c.Paths.GameFile = "./game.txt"
	}
	if c.Trend.Source == "" {
		c.Trend.Source = "reddit"
	}
	if c.Trend.MaxKeywords == 0 {
		c.Trend.MaxKeywords = 50
	}
	if c.Trend.TopK == 0 {
		c.Trend.TopK = 15
	}
	if c.Trend.MaxHashtags == 0 {
		c.Trend.MaxHashtags = 20
	}
	if c.Trend.TimeoutSec == 0 {
		c.Trend.TimeoutSec = 15
	}
	if c.Understand.MaxFrames == 0 {
		c.Understand.MaxFrames = 20
	}
	if c.Understand.Workers == 0 {
		c.Understand.Workers = 4
	}
	if c.Understand.CaptionModel == "" {
		c.Understand.CaptionModel = "gpt-4o-mini"
	}
	if c.Understand.WhisperModel == "" {
		c.Understand.WhisperModel = "small"
	}
	if c.Understand.CaptionTimeoutSec == 0 {
		c.Understand.CaptionTimeoutSec = 30
	}
	if c.Understand.TranscribeTimeoutSec == 0 {
		c.Understand.TranscribeTimeoutSec = 120
	}
	if c.Generate.Model == "" {
		c.Generate.Model = "gpt-4o-mini"
	}
	if c.Generate.TimeoutSec == 0 {
		c.Generate.TimeoutSec = 30
	}
	if c.Quality.TitleMaxChars == 0 {
		c.Quality.TitleMaxChars = 60
	}
	if c.Quality.CaptionMaxChars == 0 {
		c.Quality.CaptionMaxChars = 2200
	}
	if c.Quality.HashtagMin == 0 {
		c.Quality.HashtagMin = 5
	}
	if c.Quality.HashtagMax == 0 {
		c.Quality.HashtagMax = 12
	}
	if c.Quality.TargetWidth == 0 {
		c.Quality.TargetWidth = 1080
	}
	if c.Quality.TargetHeight == 0 {
		c.Quality.TargetHeight = 1350
	}
	if c.Quality.MaxImages == 0 {
		c.Quality.MaxImages = 10
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
}
