package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"idverify/internal/doctype"
)

const DefaultGeminiModel = "gemini-2.0-flash-lite"

// contentGenerator is satisfied by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini asks a multimodal Gemini model which ID the image shows.
type Gemini struct {
	model  contentGenerator
	closer func() error
	log    *zap.Logger
}

// NewGemini connects to the Gemini API.
func NewGemini(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	// Ask Gemini to return JSON only
	model.GenerationConfig = genai.GenerationConfig{ResponseMIMEType: "application/json"}

	g := newGemini(model, log)
	g.closer = client.Close
	return g, nil
}

func newGemini(model contentGenerator, log *zap.Logger) *Gemini {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{model: model, log: log}
}

func (g *Gemini) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

func prompt() string {
	names := make([]string, 0, len(doctype.All()))
	for _, t := range doctype.All() {
		names = append(names, fmt.Sprintf("%q", string(t)))
	}
	return `You are an expert in Philippine identity documents. Look at the image and decide which document it is.

Here are the rules:
1. "documentType" must be exactly one of: ` + strings.Join(names, ", ") + `, or "Unknown" if the image is not one of them.
2. "confidence" is a number between 0 and 1.
3. Your entire response must be ONLY the JSON object {"documentType": ..., "confidence": ...}. Do not include any text before or after the JSON.`
}

type geminiAnswer struct {
	DocumentType string  `json:"documentType"`
	Confidence   float64 `json:"confidence"`
}

// Classify implements Classifier.
func (g *Gemini) Classify(ctx context.Context, imagePath string) (Classification, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return Classification{}, err
	}
	mime := http.DetectContentType(img)
	if !strings.HasPrefix(mime, "image/") {
		return Classification{}, fmt.Errorf("unsupported content type %q", mime)
	}

	resp, err := g.model.GenerateContent(ctx, genai.ImageData(strings.TrimPrefix(mime, "image/"), img), genai.Text(prompt()))
	if err != nil {
		return Classification{}, fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return Classification{}, errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	ans, err := parseAnswer(sb.String())
	if err != nil {
		return Classification{}, err
	}

	detected := doctype.Resolve(ans.DocumentType)
	g.log.Debug("gemini classification",
		zap.String("answer", ans.DocumentType),
		zap.String("resolved", string(detected)),
		zap.Float64("confidence", ans.Confidence))

	return Classification{
		DetectedType: detected,
		Confidence:   ans.Confidence,
		Available:    true,
		Source:       SourceGemini,
	}, nil
}

func parseAnswer(raw string) (geminiAnswer, error) {
	var ans geminiAnswer
	jsonStr := stripCodeFences(raw)
	if jsonStr == "" {
		return ans, errors.New("no text in Gemini response")
	}
	if candidate, ok := extractFirstJSON(jsonStr); ok {
		jsonStr = candidate
	}
	if err := json.Unmarshal([]byte(jsonStr), &ans); err != nil {
		return ans, fmt.Errorf("failed to parse Gemini JSON: %w", err)
	}
	if ans.Confidence < 0 {
		ans.Confidence = 0
	}
	if ans.Confidence > 1 {
		// Some answers come back as percentages.
		ans.Confidence /= 100
		if ans.Confidence > 1 {
			ans.Confidence = 1
		}
	}
	return ans, nil
}
