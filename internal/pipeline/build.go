package pipeline

import (
	"database/sql"
	"log"
	"time"

	"idscan/internal/cascade"
	"idscan/internal/config"
	"idscan/internal/store"
	"idscan/internal/vision"
)

// Build assembles the full pipeline from configuration. db may be nil; the
// cache is then disabled.
func Build(cfg *config.Config, db *sql.DB) *Pipeline {
	specs := config.DefaultProviders()
	if cfg.ProvidersFile != "" {
		loaded, err := config.LoadProviders(cfg.ProvidersFile)
		if err != nil {
			log.Fatalf("providers config: %v", err)
		}
		specs = loaded
	}

	chain := &vision.Chain{PerProviderTimeout: 60 * time.Second}
	for _, spec := range specs.Providers {
		var p vision.Provider
		switch spec.Name {
		case "gemini":
			model := spec.Model
			if model == "" {
				model = cfg.GeminiModel
			}
			p = vision.NewGemini(cfg.GeminiAPIKey, model)
		case "gpt":
			model := spec.Model
			if model == "" {
				model = cfg.OpenAIModel
			}
			p = vision.NewOpenAI(cfg.OpenAIAPIKey, model)
		case "deepseek":
			model := spec.Model
			if model == "" {
				model = cfg.DeepseekModel
			}
			p = vision.NewDeepseek(cfg.DeepseekAPIKey, model)
		default:
			log.Fatalf("providers config: unknown provider %q", spec.Name)
		}
		chain.Steps = append(chain.Steps, vision.Step{
			Provider: p,
			Timeout:  time.Duration(spec.TimeoutSec) * time.Second,
		})
	}
	if specs.OCRFallback {
		chain.OCR = vision.NewYandexOCR(cfg.YCOAuthToken, cfg.YCFolderID)
	}

	var cache *store.ScanRepo
	if db != nil {
		cache = store.NewScanRepo(db)
	}

	return New(cascade.New(), chain, cache)
}
