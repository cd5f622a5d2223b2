package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	MaxRecordingSize = 5 * 1024 * 1024
	downloadTimeout  = 10 * time.Second
)

// Transcriber re-transcribes Twilio call recordings with Google Speech-to-Text
// when Twilio's own speech result is missing or unreliable.
type Transcriber struct {
	recognize    func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	closeClient  func() error
	httpClient   *http.Client
	accountSID   string
	authToken    string
	languageCode string
	altLanguages []string
	logger       *zap.Logger
}

type TranscriberConfig struct {
	CredentialsPath string
	CredentialsJSON string
	AccountSID      string
	AuthToken       string
	LanguageCode    string
}

func NewTranscriber(ctx context.Context, cfg TranscriberConfig, logger *zap.Logger) (*Transcriber, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}

	t := newTranscriber(cfg, logger)
	t.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	t.closeClient = client.Close
	return t, nil
}

func newTranscriber(cfg TranscriberConfig, logger *zap.Logger) *Transcriber {
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	return &Transcriber{
		httpClient:   &http.Client{Timeout: downloadTimeout},
		accountSID:   cfg.AccountSID,
		authToken:    cfg.AuthToken,
		languageCode: lang,
		altLanguages: []string{"ar-LB"},
		logger:       logger,
	}
}

func (t *Transcriber) Close() error {
	if t.closeClient == nil {
		return nil
	}
	return t.closeClient()
}

// TranscribeRecording downloads a recording and returns the recognized text
// with the mean confidence of its results.
func (t *Transcriber) TranscribeRecording(ctx context.Context, recordingURL string) (string, float32, error) {
	audio, err := t.download(ctx, recordingURL)
	if err != nil {
		return "", 0, err
	}

	wav, err := parseWave(audio)
	if err != nil {
		return "", 0, fmt.Errorf("read recording: %w", err)
	}
	if wav.Format.AudioFormat != 1 || wav.Format.BitsPerSample != 16 {
		return "", 0, fmt.Errorf("unsupported recording encoding (format %d, %d bits)", wav.Format.AudioFormat, wav.Format.BitsPerSample)
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(wav.Format.SampleRate),
			AudioChannelCount:          int32(wav.Format.NumChannels),
			LanguageCode:               t.languageCode,
			AlternativeLanguageCodes:   t.altLanguages,
			EnableAutomaticPunctuation: true,
			Model:                      "phone_call",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav.Data},
		},
	}

	resp, err := t.recognize(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("speech recognition failed: %w", err)
	}

	var (
		transcript strings.Builder
		total      float32
		counted    int
	)
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		transcript.WriteString(alts[0].GetTranscript())
		transcript.WriteString(" ")
		total += alts[0].GetConfidence()
		counted++
	}
	if counted == 0 {
		return "", 0, nil
	}

	text := strings.TrimSpace(transcript.String())
	confidence := total / float32(counted)
	t.logger.Info("Transcribed recording", zap.String("text", text), zap.Float32("confidence", confidence))
	return text, confidence, nil
}

func (t *Transcriber) download(ctx context.Context, recordingURL string) ([]byte, error) {
	if recordingURL == "" {
		return nil, errors.New("empty recording url")
	}
	// Twilio serves the same recording in several formats; ask for WAV.
	if path.Ext(recordingURL) == "" {
		recordingURL += ".wav"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, err
	}
	if t.accountSID != "" {
		req.SetBasicAuth(t.accountSID, t.authToken)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download recording: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxRecordingSize+1))
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	if len(data) > MaxRecordingSize {
		return nil, fmt.Errorf("recording exceeds %d bytes", MaxRecordingSize)
	}
	return data, nil
}
