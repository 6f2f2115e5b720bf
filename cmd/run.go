package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	topics "history-shorts-pipeline/01_topics"
	speech "history-shorts-pipeline/02_speech"
	transcribe "history-shorts-pipeline/03_transcribe"
	schedule "history-shorts-pipeline/04_schedule"
	classify "history-shorts-pipeline/05_classify"
	images "history-shorts-pipeline/06_images"
	motion "history-shorts-pipeline/07_motion"
	cascade "history-shorts-pipeline/08_cascade"
	captions "history-shorts-pipeline/09_captions"
	upload "history-shorts-pipeline/10_upload"
	"history-shorts-pipeline/config"
	"history-shorts-pipeline/types"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	narrationFile string
	topicTitle    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce one video end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load .env (local dev only — CI uses secrets)
		_ = godotenv.Load()

		cfg, err := config.Load(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("load config: %w", err)
			}
			log.Printf("No %s — using built-in defaults", configPath)
			cfg = config.Default()
		}
		return runPipeline(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&narrationFile, "narration-file", "", "narrate this text file instead of fetching a topic")
	runCmd.Flags().StringVar(&topicTitle, "title", "", "topic title when using --narration-file")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(ctx context.Context, cfg *config.Config) error {
	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	runID := uuid.NewString()[:8]
	log.Printf("🎬 History Shorts Pipeline starting — Run ID: %s", runID)

	state := &types.PipelineState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	runDir := filepath.Join(cfg.Paths.Output, runID)

	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveJSON(filepath.Join(runDir, "pipeline_state.json"), state)
		if state.Error != "" {
			log.Printf("❌ Pipeline failed: %s", state.Error)
		} else {
			log.Printf("✅ Pipeline complete! Final video: %s", state.FinalVideo)
		}
	}()

	fail := func(stage string, err error) error {
		state.Error = fmt.Sprintf("%s: %v", stage, err)
		return fmt.Errorf("%s: %w", stage, err)
	}

	// ─────────────────────────────────────────────
	// STAGE 1: Topic
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 1: Topic ━━━")
	topic, err := resolveTopic(ctx, cfg)
	if err != nil {
		_ = os.MkdirAll(runDir, 0755)
		return fail("Stage 1 Topic", err)
	}
	state.Topic = topic

	runDir = filepath.Join(cfg.Paths.Output, fmt.Sprintf("%s_%s", topics.SanitizeTitle(topic.Title), runID))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	log.Printf("📁 Output dir: %s", runDir)
	saveJSON(filepath.Join(runDir, "topic.json"), topic)

	// ─────────────────────────────────────────────
	// STAGE 2: Speech
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 2: Speech ━━━")
	speechGen := speech.New(cfg.Speech)
	speechFile, speechSec, err := speechGen.Run(ctx, topic.Narration, filepath.Join(runDir, "speech"))
	if err != nil {
		return fail("Stage 2 Speech", err)
	}
	state.SpeechFile = speechFile
	state.SpeechSec = speechSec

	// ─────────────────────────────────────────────
	// STAGE 3: Transcribe
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 3: Transcribe ━━━")
	ingestor := transcribe.New(cfg.Transcribe)
	words, err := ingestor.Run(ctx, speechFile, topic.Narration, filepath.Join(runDir, "transcript"))
	if err != nil {
		return fail("Stage 3 Transcribe", err)
	}

	// ─────────────────────────────────────────────
	// STAGE 4: Schedule
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 4: Schedule ━━━")
	segments, err := schedule.Schedule(words, cfg.Visuals.NumSegments, speechSec)
	if err != nil {
		return fail("Stage 4 Schedule", err)
	}
	reportDegraded(segments)

	// ─────────────────────────────────────────────
	// STAGE 5: Classify & Assign Shots
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 5: Classify ━━━")
	classifier := classify.New(classify.FromConfig(cfg.Classify))
	var history classify.SelectionHistory
	for i := range segments {
		seg := &segments[i]
		if cfg.Classify.UseLLM {
			seg.ContentType = classifier.ClassifyWithFallback(ctx, seg.Text)
		} else {
			seg.ContentType = classifier.KeywordClassify(seg.Text)
		}
		seg.ShotType = classifier.AssignShot(seg.ContentType, seg.Index, len(segments), &history)
		history.Push(seg.ShotType)
	}

	// Deterministic effect plan per topic.
	rng := rand.New(rand.NewSource(seedFrom(topic.ID)))
	for i, effect := range motion.PlanEffects(len(segments), rng) {
		segments[i].Effect = string(effect)
	}

	// ─────────────────────────────────────────────
	// STAGE 6: Images
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 6: Images ━━━")
	fetcher := images.New(cfg.Visuals)
	if err := fetcher.Run(ctx, segments, filepath.Join(runDir, "images")); err != nil {
		return fail("Stage 6 Images", err)
	}

	// ─────────────────────────────────────────────
	// STAGE 7: Motion Clips
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 7: Motion ━━━")
	renderer := motion.New(cfg.Visuals)
	if err := renderer.Run(ctx, segments, filepath.Join(runDir, "clips")); err != nil {
		return fail("Stage 7 Motion", err)
	}

	// ─────────────────────────────────────────────
	// STAGE 8: Duration Cascade
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 8: Cascade ━━━")
	audioDir := filepath.Join(runDir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return fail("Stage 8 Cascade", err)
	}

	mixer := cascade.NewMixer(cfg.Cascade)
	mixedAudio, contract, err := mixer.Run(ctx, speechFile, pickMusic(cfg.Paths.Music), audioDir)
	if err != nil {
		return fail("Stage 8 Audio Mix", err)
	}
	state.MixedAudio = mixedAudio

	assembler := cascade.NewAssembler(cfg.Cascade, cfg.Visuals.FPS)
	silentVideo, err := assembler.Run(ctx, segments, contract, filepath.Join(runDir, "video"))
	if err != nil {
		return fail("Stage 8 Video Assembly", err)
	}
	state.SilentVideo = silentVideo

	muxer := cascade.NewMuxer(cfg.Cascade)
	muxedVideo, err := muxer.Run(ctx, silentVideo, mixedAudio, contract, filepath.Join(runDir, "video"))
	if err != nil {
		return fail("Stage 8 Mux", err)
	}
	state.MuxedVideo = muxedVideo

	// ─────────────────────────────────────────────
	// STAGE 9: Captions
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 9: Captions ━━━")
	capGen := captions.New(cfg.Captions)
	chunks := capGen.Group(words)
	finalVideo := muxedVideo
	if cfg.Captions.BurnIntoVideo {
		assFile := filepath.Join(runDir, "captions.ass")
		if err := capGen.WriteASS(chunks, contract.Seconds, assFile); err != nil {
			return fail("Stage 9 Captions", err)
		}
		burned, err := capGen.Burn(ctx, muxedVideo, assFile, filepath.Join(runDir, "video"))
		if err != nil {
			log.Printf("⚠️  Stage 9 caption burn failed: %v — shipping without captions", err)
		} else {
			conformed, err := muxer.ConformSubtitled(ctx, burned, contract)
			if err != nil {
				return fail("Stage 9 Conform", err)
			}
			finalVideo = conformed
		}
	}
	state.FinalVideo = finalVideo

	metadataFile := filepath.Join(runDir, "sync_metadata.json")
	saveJSON(metadataFile, &types.SyncMetadata{
		RunID:           runID,
		Topic:           topic.Title,
		ContractSeconds: contract.Seconds,
		Segments:        segments,
		CaptionChunks:   chunks,
	})
	state.MetadataFile = metadataFile

	// ─────────────────────────────────────────────
	// STAGE 10: Upload
	// ─────────────────────────────────────────────
	if cfg.Upload.Enabled {
		log.Println("\n━━━ STAGE 10: Upload ━━━")
		uploader := upload.New(cfg.Upload)
		videoID, videoURL, err := uploader.Run(ctx, finalVideo, topic)
		if err != nil {
			log.Printf("⚠️  Stage 10 Upload failed: %v — video kept locally", err)
		} else {
			state.YouTubeID = videoID
			state.YouTubeURL = videoURL
			if err := upload.LogUpload(videoID, videoURL, finalVideo, cfg.Paths.Logs, topic); err != nil {
				log.Printf("⚠️  Upload log failed: %v", err)
			}
		}
	}

	return nil
}

// resolveTopic fetches a trending topic, or reads the narration from a
// local file when --narration-file is set.
func resolveTopic(ctx context.Context, cfg *config.Config) (*types.Topic, error) {
	if narrationFile != "" {
		data, err := os.ReadFile(narrationFile)
		if err != nil {
			return nil, fmt.Errorf("read narration file: %w", err)
		}
		narration := strings.TrimSpace(string(data))
		if narration == "" {
			return nil, fmt.Errorf("narration file %s is empty", narrationFile)
		}
		title := topicTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(narrationFile), filepath.Ext(narrationFile))
		}
		return &types.Topic{
			ID:        fmt.Sprintf("local_%s", topics.SanitizeTitle(title)),
			Title:     title,
			Narration: narration,
			Source:    "local",
		}, nil
	}

	fetcher := topics.New(cfg.Topics, cfg.Paths.UsedTopicsLog)
	topic, err := fetcher.Run(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(topic.Narration) == "" {
		return nil, fmt.Errorf("topic %q has no narration text", topic.Title)
	}
	return topic, nil
}

// reportDegraded logs segments that got no cleanly transcribed words.
// Degraded segments are a quality signal, never an error.
func reportDegraded(segments []types.Segment) {
	for _, seg := range segments {
		if seg.WordCount == 0 || seg.AvgConfidence < 0.5 {
			log.Printf("⚠️  Segment %d degraded (words: %d, confidence: %.2f): %q",
				seg.Index, seg.WordCount, seg.AvgConfidence, seg.Text)
		}
	}
}

// pickMusic returns the lexically first audio file in the music dir, or
// empty when there is none. The mix proceeds without music either way.
func pickMusic(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp3", ".m4a", ".wav", ".flac", ".ogg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return ""
	}
	sort.Strings(files)
	return files[0]
}

func seedFrom(id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: cannot marshal %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: cannot save %s: %v", path, err)
	}
}
