package compliance

import "errors"

var (
	// ErrCatalogLoad indicates the catalog source was unreadable or malformed.
	ErrCatalogLoad = errors.New("compliance catalog load failed")
	// ErrCatalogUnavailable is returned by a check when no usable catalog exists.
	ErrCatalogUnavailable = errors.New("compliance catalog unavailable")
	// ErrPromptTemplateMissing indicates the requested prompt key is not registered.
	ErrPromptTemplateMissing = errors.New("prompt template missing")
	// ErrPromptRender indicates a template referenced a variable that was not supplied.
	ErrPromptRender = errors.New("prompt render failed")
	// ErrParse indicates the oracle output did not contain a decodable record.
	ErrParse = errors.New("classification parse failed")
	// ErrInvalidReport rejects check requests without a usable test report.
	ErrInvalidReport = errors.New("invalid test report")
)
