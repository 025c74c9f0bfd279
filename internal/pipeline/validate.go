package pipeline

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ValidatedUpload is the typed result of structural validation, carrying the
// content hash computed exactly once over the full blob.
type ValidatedUpload struct {
	Data        []byte
	ContentType string
	Hash        string
	Width       int
	Height      int
}

// validate applies the structural gates in order: size, declared content
// type, decoded pixel dimensions. Each failure is a *ValidationError and
// happens before any external call.
func (p *Pipeline) validate(data []byte, contentType string) (*ValidatedUpload, error) {
	if int64(len(data)) > p.cfg.MaxSizeBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"Image file is too large. Maximum size is %dMB.", p.cfg.MaxSizeBytes/(1024*1024))}
	}

	if !allowedContentTypes[contentType] {
		return nil, &ValidationError{Reason: "Unsupported file format. Allowed: JPEG, PNG, JPG."}
	}

	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ValidationError{Reason: "Could not decode image content."}
	}

	if imgCfg.Width < p.cfg.MinDimension || imgCfg.Height < p.cfg.MinDimension {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"Image dimensions too small. Minimum: %dx%d pixels.", p.cfg.MinDimension, p.cfg.MinDimension)}
	}
	if imgCfg.Width > p.cfg.MaxDimension || imgCfg.Height > p.cfg.MaxDimension {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"Image dimensions too large. Maximum: %dx%d pixels.", p.cfg.MaxDimension, p.cfg.MaxDimension)}
	}

	return &ValidatedUpload{
		Data:        data,
		ContentType: contentType,
		Hash:        ContentHash(data),
		Width:       imgCfg.Width,
		Height:      imgCfg.Height,
	}, nil
}
