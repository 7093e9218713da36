package textextract

import (
	"context"
)

// ParserStrategy adapts a PageParser into a strategy.
type ParserStrategy struct {
	name   Strategy
	parser PageParser
}

func NewParserStrategy(name Strategy, parser PageParser) *ParserStrategy {
	return &ParserStrategy{name: name, parser: parser}
}

func (s *ParserStrategy) Name() Strategy { return s.name }

func (s *ParserStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	pages, err := s.parser.PageTexts(ctx, data)
	if err != nil {
		return "", err
	}
	return joinPages(pages), nil
}
