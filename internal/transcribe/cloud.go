package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/subtitle"
)

// CloudAdapter POSTs audio to a provider endpoint and normalizes its
// timestamped response into Segments.
type CloudAdapter struct {
	BaseURL string
	APIKey  string
	http    *http.Client
}

func NewCloudAdapter(baseURL, apiKey string) *CloudAdapter {
	return &CloudAdapter{BaseURL: baseURL, APIKey: apiKey, http: &http.Client{}}
}

func (c *CloudAdapter) Name() string { return "cloud-api" }

type cloudWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type cloudSegment struct {
	Start        float64     `json:"start"`
	End          float64     `json:"end"`
	Text         string      `json:"text"`
	Words        []cloudWord `json:"words"`
	NoSpeechProb *float64    `json:"no_speech_prob"`
}

type cloudResponse struct {
	Language string         `json:"language"`
	Segments []cloudSegment `json:"segments"`
}

func (c *CloudAdapter) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return Result{}, subgenerr.IO(audioPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, fmt.Errorf("read audio: %w", err)
	}
	if opts.Model != "" {
		mw.WriteField("model", opts.Model)
	}
	if opts.ForcedLang != "" {
		mw.WriteField("language", opts.ForcedLang)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("close upload: %w", err)
	}

	timeout := time.Duration(opts.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 900 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transcribe", &body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, subgenerr.TranscriptionFailed("cloud-api request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Result{}, subgenerr.TranscriptionFailed(fmt.Sprintf("cloud-api returned status %d", resp.StatusCode), nil)
	}

	var parsed cloudResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, subgenerr.BadTranscriptionOutput("malformed cloud-api response", err)
	}

	segs, err := normalizeCloudSegments(parsed.Segments)
	if err != nil {
		return Result{}, err
	}
	return Result{Segments: segs, DetectedLanguage: parsed.Language}, nil
}

func normalizeCloudSegments(in []cloudSegment) ([]subtitle.Segment, error) {
	out := make([]subtitle.Segment, 0, len(in))
	for i, s := range in {
		if s.End < s.Start || s.Start < 0 {
			return nil, subgenerr.BadTranscriptionOutput(fmt.Sprintf("segment %d has inverted or negative timestamps", i), nil)
		}
		words := make([]subtitle.Word, 0, len(s.Words))
		for _, w := range s.Words {
			if w.End < w.Start || w.Start < 0 {
				return nil, subgenerr.BadTranscriptionOutput(fmt.Sprintf("segment %d word %q has inverted timestamps", i, w.Word), nil)
			}
			words = append(words, subtitle.Word{Text: w.Word, StartSec: w.Start, EndSec: w.End})
		}
		out = append(out, subtitle.Segment{
			StartSec:     s.Start,
			EndSec:       s.End,
			Text:         s.Text,
			Words:        words,
			NoSpeechProb: s.NoSpeechProb,
		})
	}
	return out, nil
}
