package service

import (
	"github.com/vaultpass/securevault-go/internal/crypto"
	"github.com/vaultpass/securevault-go/internal/model"
)

// GeneratorService handles password generation business logic.
type GeneratorService struct{}

// NewGeneratorService creates a new GeneratorService.
func NewGeneratorService() *GeneratorService {
	return &GeneratorService{}
}

// Generate produces a password based on the given request.
func (s *GeneratorService) Generate(req model.GenerateRequest) (model.GenerateResponse, error) {
	defaults := crypto.DefaultOptions()
	opts := crypto.GeneratorOptions{
		Length:         req.Length,
		Uppercase:      boolOrDefault(req.Uppercase, defaults.Uppercase),
		Lowercase:      boolOrDefault(req.Lowercase, defaults.Lowercase),
		Numbers:        boolOrDefault(req.Numbers, defaults.Numbers),
		Symbols:        boolOrDefault(req.Symbols, defaults.Symbols),
		ExcludeSimilar: req.ExcludeSimilar,
	}
	if opts.Length == 0 {
		opts.Length = defaults.Length
	}

	password, err := crypto.Generate(opts)
	if err != nil {
		return model.GenerateResponse{}, err
	}

	return model.GenerateResponse{
		Password: password,
		Length:   len(password),
		Strength: crypto.Strength(password),
	}, nil
}

// boolOrDefault returns the dereferenced pointer value, or the fallback if nil.
func boolOrDefault(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}
