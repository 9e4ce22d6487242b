// Package vision recognizes text through the Google Cloud Vision REST API.
// It sits last in the fallback chain because it needs a billing-enabled key.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/raminstitute/examkit/ocr"
)

const apiURL = "https://vision.googleapis.com/v1/images:annotate"

// EnvAPIKey names the environment variable holding the API key.
const EnvAPIKey = "GOOGLE_VISION_API_KEY"

// Engine implements ocr.Provider against the images:annotate endpoint.
type Engine struct {
	APIKey string
	Client *http.Client
	// URL overrides the endpoint, for tests.
	URL string
}

// New reads the API key from the environment.
func New() *Engine {
	return &Engine{APIKey: os.Getenv(EnvAPIKey)}
}

func (e *Engine) Name() string { return "googlevision" }

// Available reports whether an API key is configured.
func (e *Engine) Available(context.Context) bool { return e.APIKey != "" }

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image        imageContent `json:"image"`
	Features     []feature    `json:"features"`
	ImageContext imageContext `json:"imageContext"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type imageContext struct {
	LanguageHints []string `json:"languageHints"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string  `json:"description"`
			Confidence  float64 `json:"confidence"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Recognize submits one TEXT_DETECTION request. The first annotation in the
// response carries the full page text.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	req := annotateRequest{Requests: []imageRequest{{
		Image:        imageContent{Content: base64.StdEncoding.EncodeToString(in.Image)},
		Features:     []feature{{Type: "TEXT_DETECTION", MaxResults: 1}},
		ImageContext: imageContext{LanguageHints: hints(in.Languages)},
	}}}
	payload, err := json.Marshal(req)
	if err != nil {
		return ocr.Result{}, err
	}

	url := e.URL
	if url == "" {
		url = apiURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"?key="+e.APIKey, bytes.NewReader(payload))
	if err != nil {
		return ocr.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ocr.Result{}, fmt.Errorf("vision status %d", resp.StatusCode)
	}
	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ocr.Result{}, fmt.Errorf("vision decode: %w", err)
	}
	if len(parsed.Responses) == 0 {
		return ocr.Result{}, fmt.Errorf("vision: empty response")
	}
	first := parsed.Responses[0]
	if first.Error != nil {
		return ocr.Result{}, fmt.Errorf("vision: %s (code %d)", first.Error.Message, first.Error.Code)
	}
	if len(first.TextAnnotations) == 0 {
		return ocr.Result{}, fmt.Errorf("vision: no text detected")
	}
	conf := first.TextAnnotations[0].Confidence
	if conf == 0 {
		conf = 0.9
	}
	return ocr.Result{
		InputID:    in.ID,
		PlainText:  strings.TrimSpace(first.TextAnnotations[0].Description),
		Confidence: conf,
	}, nil
}

// hints converts tessdata-style codes to BCP-47 for the Vision API.
func hints(langs []string) []string {
	if len(langs) == 0 {
		return []string{"ta", "en"}
	}
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		switch l {
		case "tam":
			out = append(out, "ta")
		case "eng":
			out = append(out, "en")
		default:
			out = append(out, l)
		}
	}
	return out
}
