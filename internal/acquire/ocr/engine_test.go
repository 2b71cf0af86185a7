package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubLookPath makes the tesseract binary appear installed or missing.
func stubLookPath(t *testing.T, installed bool) {
	t.Helper()
	orig := lookPath
	lookPath = func(file string) (string, error) {
		if installed {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	stubLookPath(t, true)

	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{name: "empty means auto", cfg: Config{}, wantName: EngineTesseract},
		{name: "auto", cfg: Config{Engine: EngineAuto}, wantName: EngineTesseract},
		{name: "tesseract enhanced", cfg: Config{Engine: EngineTesseract, Preprocess: true}, wantName: "tesseract+enhance"},
		{name: "none", cfg: Config{Engine: "NONE"}, wantName: EngineNone},
		{name: "openai", cfg: Config{Engine: EngineOpenAI, OpenAI: OpenAIConfig{APIKey: "sk-test"}}, wantName: EngineOpenAI},
		{name: "openai enhanced", cfg: Config{Engine: EngineOpenAI, Preprocess: true, OpenAI: OpenAIConfig{APIKey: "sk-test"}}, wantName: "openai+enhance"},
		{name: "openai without key", cfg: Config{Engine: EngineOpenAI}, wantErr: true},
		{name: "azure", cfg: Config{Engine: EngineAzure, Azure: AzureConfig{Endpoint: "https://example.cognitiveservices.azure.com", APIKey: "k"}}, wantName: EngineAzure},
		{name: "azure without endpoint", cfg: Config{Engine: EngineAzure, Azure: AzureConfig{APIKey: "k"}}, wantErr: true},
		{name: "unknown", cfg: Config{Engine: "paddle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := New(tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, engine.Name())
		})
	}
}

func TestNew_TesseractMissing(t *testing.T) {
	stubLookPath(t, false)

	engine, err := New(Config{Engine: EngineAuto}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, IsDisabled(engine))

	_, err = New(Config{Engine: EngineTesseract}, zap.NewNop())
	assert.Error(t, err)
}

func TestNoneEngine(t *testing.T) {
	engine, err := New(Config{Engine: EngineNone}, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, IsDisabled(engine))
	_, err = engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrDisabled)
}

type fakeCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIEngine_Recognize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	t.Run("returns trimmed transcription", func(t *testing.T) {
		client := &fakeCompleter{resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  Invoice # : INV-7\n"}}},
		}}
		engine := newOpenAIEngine(client, OpenAIConfig{}, zap.NewNop())

		text, err := engine.Recognize(context.Background(), img)

		require.NoError(t, err)
		assert.Equal(t, "Invoice # : INV-7", text)
		assert.Equal(t, openai.GPT4o, client.req.Model)
		require.Len(t, client.req.Messages, 2)
		parts := client.req.Messages[1].MultiContent
		require.Len(t, parts, 2)
		assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,"))
	})

	t.Run("api error", func(t *testing.T) {
		engine := newOpenAIEngine(&fakeCompleter{err: errors.New("429")}, OpenAIConfig{Model: "gpt-4o-mini"}, zap.NewNop())
		_, err := engine.Recognize(context.Background(), img)
		assert.Error(t, err)
	})

	t.Run("no choices", func(t *testing.T) {
		engine := newOpenAIEngine(&fakeCompleter{}, OpenAIConfig{}, zap.NewNop())
		_, err := engine.Recognize(context.Background(), img)
		assert.Error(t, err)
	})
}

type fakeRecognizer struct {
	result computervision.OcrResult
	err    error
}

func (f *fakeRecognizer) RecognizePrintedTextInStream(context.Context, bool, io.ReadCloser, computervision.OcrLanguages) (computervision.OcrResult, error) {
	return f.result, f.err
}

func words(ws ...string) *[]computervision.OcrWord {
	out := make([]computervision.OcrWord, len(ws))
	for i := range ws {
		out[i] = computervision.OcrWord{Text: &ws[i]}
	}
	return &out
}

func TestAzureEngine_Recognize(t *testing.T) {
	result := computervision.OcrResult{
		Regions: &[]computervision.OcrRegion{
			{Lines: &[]computervision.OcrLine{
				{Words: words("Invoice", "#", ":", "INV-9")},
				{Words: words("GSTIN", "29ABCDE1234F1Z5")},
			}},
			{Lines: &[]computervision.OcrLine{
				{Words: words()},
				{Words: words("Total", "1,180.00")},
			}},
		},
	}

	engine := &AzureEngine{client: &fakeRecognizer{result: result}, logger: zap.NewNop()}
	text, err := engine.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))

	require.NoError(t, err)
	assert.Equal(t, "Invoice # : INV-9\nGSTIN 29ABCDE1234F1Z5\nTotal 1,180.00", text)

	engine = &AzureEngine{client: &fakeRecognizer{err: errors.New("401")}, logger: zap.NewNop()}
	_, err = engine.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.Error(t, err)
}

func TestFlattenOCRResult_NoRegions(t *testing.T) {
	assert.Empty(t, flattenOCRResult(computervision.OcrResult{}))
}

func TestEnhance(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	out := Enhance(src)

	assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())
	r, g, b, _ := out.At(5, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

type fakeRunner struct {
	name      string
	args      []string
	imageSeen bool
	stdout    string
	stderr    string
	err       error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if len(args) > 0 {
		_, statErr := os.Stat(args[0])
		f.imageSeen = statErr == nil
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestTesseractEngine_Recognize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))

	t.Run("passes page image and reads stdout", func(t *testing.T) {
		runner := &fakeRunner{stdout: "TAX INVOICE\nInvoice No: INV-11\n\n"}
		engine := newTesseractEngine(runner, TesseractConfig{DPI: 300, PSM: 6}, zap.NewNop())

		text, err := engine.Recognize(context.Background(), img)

		require.NoError(t, err)
		assert.Equal(t, "TAX INVOICE\nInvoice No: INV-11", text)
		assert.Equal(t, "tesseract", runner.name)
		assert.True(t, runner.imageSeen)
		assert.Equal(t, []string{"stdout", "-l", "eng", "--dpi", "300", "--psm", "6"}, runner.args[1:])

		_, err = os.Stat(runner.args[0])
		assert.True(t, os.IsNotExist(err), "page image is removed afterwards")
	})

	t.Run("custom binary and language", func(t *testing.T) {
		runner := &fakeRunner{}
		engine := newTesseractEngine(runner, TesseractConfig{Binary: "/opt/tess/bin/tesseract", Lang: "eng+hin"}, zap.NewNop())

		_, err := engine.Recognize(context.Background(), img)

		require.NoError(t, err)
		assert.Equal(t, "/opt/tess/bin/tesseract", runner.name)
		assert.Equal(t, []string{"stdout", "-l", "eng+hin"}, runner.args[1:])
	})

	t.Run("command failure carries stderr", func(t *testing.T) {
		runner := &fakeRunner{stderr: "Error opening data file eng.traineddata", err: errors.New("exit status 1")}
		engine := newTesseractEngine(runner, TesseractConfig{}, zap.NewNop())

		_, err := engine.Recognize(context.Background(), img)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "eng.traineddata")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		engine := newTesseractEngine(&fakeRunner{err: errors.New("signal: killed")}, TesseractConfig{}, zap.NewNop())

		_, err := engine.Recognize(ctx, img)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
