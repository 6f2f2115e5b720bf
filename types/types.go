package types

// WordSource tells downstream stages whether a word came straight from the
// speech-to-text engine or was synthesized to fill a transcription gap.
type WordSource string

const (
	SourceTranscribed WordSource = "transcribed"
	SourceInferred    WordSource = "inferred"
)

// Word is one transcribed or inferred token with timestamps in seconds
// relative to the audio file origin. Immutable once produced.
type Word struct {
	Text       string     `json:"text"`
	Start      float64    `json:"start"`
	End        float64    `json:"end"`
	Confidence float64    `json:"confidence"`
	Source     WordSource `json:"source"`
}

// ContentType labels a segment's narrative purpose.
type ContentType string

const (
	CharacterAction        ContentType = "character_action"
	EnvironmentDescription ContentType = "environment_description"
	EmotionalMoment        ContentType = "emotional_moment"
	DialogueConfrontation  ContentType = "dialogue_confrontation"
	ExpositionSetup        ContentType = "exposition_setup"
)

// ContentTypes lists all types in their fixed tie-break order.
var ContentTypes = []ContentType{
	CharacterAction,
	EnvironmentDescription,
	EmotionalMoment,
	DialogueConfrontation,
	ExpositionSetup,
}

// ShotType is a cinematographic framing category.
type ShotType string

const (
	WideShot         ShotType = "wide_shot"
	MediumShot       ShotType = "medium_shot"
	CloseUp          ShotType = "close_up"
	EstablishingShot ShotType = "establishing_shot"
	TwoShot          ShotType = "two_shot"
)

// Segment is one fixed-duration slice of the narration timeline, rendered
// as one visual shot. Created once by the scheduler, enriched in place by
// the classifier, planner, and image stage; never deleted mid-pipeline.
type Segment struct {
	Index         int         `json:"index"` // 1..N
	Start         float64     `json:"start"`
	End           float64     `json:"end"`
	Duration      float64     `json:"duration"`
	Text          string      `json:"text"`
	WordCount     int         `json:"word_count"`
	AvgConfidence float64     `json:"avg_confidence"`
	ContentType   ContentType `json:"content_type"`
	ShotType      ShotType    `json:"shot_type"`
	Effect        string      `json:"effect"`
	ImageFile     string      `json:"image_file,omitempty"`
	ClipFile      string      `json:"clip_file,omitempty"`
}

// CaptionChunk is a small group of consecutive words displayed together
// on screen. Chunks are ordered by Start and overlap a neighbor by at
// most the configured budget.
type CaptionChunk struct {
	Words []Word  `json:"words"`
	Start float64 `json:"chunk_start"`
	End   float64 `json:"chunk_end"`
}

// WordHighlightInterval is the interval during which one word of a chunk
// is the visually emphasized one. Intervals tile the chunk's visible span
// so the highlight persists through intra-chunk pauses.
type WordHighlightInterval struct {
	WordIndex    int     `json:"word_index_in_chunk"`
	VisibleFrom  float64 `json:"visible_from"`
	VisibleUntil float64 `json:"visible_until"`
}

// DurationContract is the authoritative target duration for every
// artifact produced after audio mixing, plus the per-stage tolerances.
// Established once from the mixed audio and never revised.
type DurationContract struct {
	Seconds     float64 `json:"seconds"`
	AudioTolSec float64 `json:"audio_tol_sec"`
	VideoTolSec float64 `json:"video_tol_sec"`
	MuxTolSec   float64 `json:"mux_tol_sec"`
	MaxPadSec   float64 `json:"max_pad_sec"`
}

// Topic holds a fetched trending topic ready for narration
type Topic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Narration   string   `json:"narration"`
	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url"`
	Score       int      `json:"score"`
	PublishedAt string   `json:"published_at"`
	Keywords    []string `json:"keywords"`
}

// SyncMetadata is the JSON sidecar written next to the final video for
// downstream inspection and debugging.
type SyncMetadata struct {
	RunID           string         `json:"run_id"`
	Topic           string         `json:"topic"`
	ContractSeconds float64        `json:"contract_seconds"`
	Segments        []Segment      `json:"segments"`
	CaptionChunks   []CaptionChunk `json:"caption_chunks"`
}

// PipelineState tracks the full state of one pipeline run
type PipelineState struct {
	RunID        string  `json:"run_id"`
	StartedAt    string  `json:"started_at"`
	CompletedAt  string  `json:"completed_at"`
	Topic        *Topic  `json:"topic"`
	SpeechFile   string  `json:"speech_file"`
	SpeechSec    float64 `json:"speech_sec"`
	MixedAudio   string  `json:"mixed_audio"`
	SilentVideo  string  `json:"silent_video"`
	MuxedVideo   string  `json:"muxed_video"`
	FinalVideo   string  `json:"final_video"`
	MetadataFile string  `json:"metadata_file"`
	YouTubeURL   string  `json:"youtube_url,omitempty"`
	YouTubeID    string  `json:"youtube_id,omitempty"`
	Error        string  `json:"error,omitempty"`
}
