package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Topics     TopicsConfig     `yaml:"topics"`
	Speech     SpeechConfig     `yaml:"speech"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Classify   ClassifyConfig   `yaml:"classify"`
	Visuals    VisualsConfig    `yaml:"visuals"`
	Cascade    CascadeConfig    `yaml:"cascade"`
	Captions   CaptionsConfig   `yaml:"captions"`
	Upload     UploadConfig     `yaml:"upload"`
	Paths      PathsConfig      `yaml:"paths"`
}

type TopicsConfig struct {
	Subreddits    []string `yaml:"subreddits"`
	LookbackDays  int      `yaml:"lookback_days"`
	MinScore      int      `yaml:"min_score"`
	MinComments   int      `yaml:"min_comments"`
	MaxCandidates int      `yaml:"max_candidates"`
}

type SpeechConfig struct {
	Voice        string  `yaml:"voice"`
	OutputFormat string  `yaml:"output_format"`
	SampleRate   int     `yaml:"sample_rate"`
	SpeedFactor  float64 `yaml:"speed_factor"`
}

type TranscribeConfig struct {
	WhisperModel     string  `yaml:"whisper_model"`
	Language         string  `yaml:"language"`
	GapFillThreshold float64 `yaml:"gap_fill_threshold_sec"` // gaps larger than this get inferred words
	MaxInferredWords int     `yaml:"max_inferred_per_gap"`
}

type ClassifyConfig struct {
	Model           string              `yaml:"model"`
	UseLLM          bool                `yaml:"use_llm"`
	RateLimitPerMin int                 `yaml:"rate_limit_per_min"`
	Keywords        map[string][]string `yaml:"keywords"`         // content type → keyword overrides
	ShotPreferences map[string][]string `yaml:"shot_preferences"` // content type → shot order overrides
}

type VisualsConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FPS         int     `yaml:"fps"`
	NumSegments int     `yaml:"num_segments"`
	ZoomRange   float64 `yaml:"zoom_range"` // 0.1 → zoom travels 1.0..1.1
	PanScale    float64 `yaml:"pan_scale"`  // pre-scale for pan effects
	MaxParallel int     `yaml:"max_parallel_renders"`
}

type CascadeConfig struct {
	AudioToleranceMs float64 `yaml:"audio_tolerance_ms"`
	VideoToleranceMs float64 `yaml:"video_tolerance_ms"`
	MuxToleranceMs   float64 `yaml:"mux_tolerance_ms"`
	MaxPadSec        float64 `yaml:"max_pad_sec"` // deficits beyond this are fatal
	FadeOutMs        float64 `yaml:"fade_out_ms"`
	VoiceTargetDb    float64 `yaml:"voice_target_db"`
	MusicTargetDb    float64 `yaml:"music_target_db"`
}

type CaptionsConfig struct {
	Font            string  `yaml:"font"`
	FontSize        int     `yaml:"font_size"`
	MarginV         int     `yaml:"margin_bottom"`
	MaxChunkChars   int     `yaml:"max_chunk_chars"`
	OverlapBudgetMs float64 `yaml:"overlap_budget_ms"`
	BurnIntoVideo   bool    `yaml:"burn_into_video"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	DefaultLanguage   string `yaml:"default_language"`
}

type PathsConfig struct {
	Music         string `yaml:"music"`
	Output        string `yaml:"output"`
	Logs          string `yaml:"logs"`
	UsedTopicsLog string `yaml:"used_topics_log"`
}

// Load reads config.yaml and returns a Config with defaults applied
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a Config usable without a config.yaml on disk
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Speech.Voice == "" {
		c.Speech.Voice = "en-US-GuyNeural"
	}
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = "mp3"
	}
	if c.Speech.SampleRate == 0 {
		c.Speech.SampleRate = 44100
	}
	if c.Speech.SpeedFactor == 0 {
		c.Speech.SpeedFactor = 1.0
	}
	if c.Transcribe.WhisperModel == "" {
		c.Transcribe.WhisperModel = "base"
	}
	if c.Transcribe.Language == "" {
		c.Transcribe.Language = "en"
	}
	if c.Transcribe.GapFillThreshold == 0 {
		c.Transcribe.GapFillThreshold = 1.0
	}
	if c.Transcribe.MaxInferredWords == 0 {
		c.Transcribe.MaxInferredWords = 2
	}
	if c.Classify.Model == "" {
		c.Classify.Model = "gpt-4o-mini"
	}
	if c.Classify.RateLimitPerMin == 0 {
		c.Classify.RateLimitPerMin = 60
	}
	if c.Visuals.Width == 0 {
		c.Visuals.Width = 768
	}
	if c.Visuals.Height == 0 {
		c.Visuals.Height = 1344
	}
	if c.Visuals.FPS == 0 {
		c.Visuals.FPS = 30
	}
	if c.Visuals.NumSegments == 0 {
		c.Visuals.NumSegments = 12
	}
	if c.Visuals.ZoomRange == 0 {
		c.Visuals.ZoomRange = 0.1
	}
	if c.Visuals.PanScale == 0 {
		c.Visuals.PanScale = 1.2
	}
	if c.Visuals.MaxParallel == 0 {
		c.Visuals.MaxParallel = 4
	}
	if c.Cascade.AudioToleranceMs == 0 {
		c.Cascade.AudioToleranceMs = 1.0
	}
	if c.Cascade.VideoToleranceMs == 0 {
		c.Cascade.VideoToleranceMs = 1.0
	}
	if c.Cascade.MuxToleranceMs == 0 {
		c.Cascade.MuxToleranceMs = 0.1
	}
	if c.Cascade.MaxPadSec == 0 {
		c.Cascade.MaxPadSec = 2.0
	}
	if c.Cascade.FadeOutMs == 0 {
		c.Cascade.FadeOutMs = 200
	}
	if c.Cascade.VoiceTargetDb == 0 {
		c.Cascade.VoiceTargetDb = -12
	}
	if c.Cascade.MusicTargetDb == 0 {
		c.Cascade.MusicTargetDb = -24
	}
	if c.Captions.Font == "" {
		c.Captions.Font = "Impact"
	}
	if c.Captions.FontSize == 0 {
		c.Captions.FontSize = 49
	}
	if c.Captions.MarginV == 0 {
		c.Captions.MarginV = 80
	}
	if c.Captions.MaxChunkChars == 0 {
		c.Captions.MaxChunkChars = 25
	}
	if c.Captions.OverlapBudgetMs == 0 {
		c.Captions.OverlapBudgetMs = 100
	}
	if c.Topics.LookbackDays == 0 {
		c.Topics.LookbackDays = 7
	}
	if c.Topics.MaxCandidates == 0 {
		c.Topics.MaxCandidates = 25
	}
	if len(c.Topics.Subreddits) == 0 {
		c.Topics.Subreddits = []string{"history", "todayilearned"}
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "27"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if c.Paths.Music == "" {
		c.Paths.Music = "assets/music"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
	if c.Paths.UsedTopicsLog == "" {
		c.Paths.UsedTopicsLog = "logs/used_topics.json"
	}
}
