// Package hclparse wraps the HCL2 parser so diagnostics are handled in one place.
package hclparse

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mattn/go-isatty"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/pkg/log"
)

const diagnosticsWidth = 100

type Option func(*Parser) *Parser

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(parser *Parser) *Parser {
		parser.logger = logger
		return parser
	}
}

// WithDiagnosticsWriter prints diagnostics to writer before they are returned as an error.
func WithDiagnosticsWriter(writer io.Writer, disableColor bool) Option {
	return func(parser *Parser) *Parser {
		diagsWriter := parser.GetDiagnosticsWriter(writer, disableColor)

		parser.diagsWriterFunc = func(diags hcl.Diagnostics) error {
			if !diags.HasErrors() {
				return nil
			}

			if err := diagsWriter.WriteDiagnostics(diags); err != nil {
				return errors.New(err)
			}

			return nil
		}

		return parser
	}
}

type Parser struct {
	*hclparse.Parser
	diagsWriterFunc func(hcl.Diagnostics) error
	logger          log.Logger
}

func NewParser(opts ...Option) *Parser {
	parser := &Parser{
		Parser: hclparse.NewParser(),
		logger: log.Default(),
	}

	for _, opt := range opts {
		parser = opt(parser)
	}

	return parser
}

// File is a parsed HCL file.
type File struct {
	*hcl.File
	ConfigPath string
}

func (parser *Parser) ParseFromFile(configPath string) (*File, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.New(err)
	}

	return parser.ParseFromBytes(content, configPath)
}

func (parser *Parser) ParseFromString(content, configPath string) (*File, error) {
	return parser.ParseFromBytes([]byte(content), configPath)
}

// ParseFromBytes parses HCL, or JSON when configPath ends in .json.
func (parser *Parser) ParseFromBytes(content []byte, configPath string) (file *File, err error) {
	// cty conversions panic on some malformed input
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.New(PanicWhileParsingConfigError{RecoveredValue: recovered, ConfigFile: configPath})
		}
	}()

	var (
		diags   hcl.Diagnostics
		hclFile *hcl.File
	)

	switch filepath.Ext(configPath) {
	case ".json":
		hclFile, diags = parser.ParseJSON(content, configPath)
	default:
		hclFile, diags = parser.ParseHCL(content, configPath)
	}

	if err := parser.HandleDiagnostics(diags); err != nil {
		parser.logger.Debugf("Failed to parse HCL in file %s: %v", configPath, diags)
		return nil, err
	}

	return &File{File: hclFile, ConfigPath: configPath}, nil
}

// HandleDiagnostics writes diags if a writer is set and returns them as an error when they
// contain errors.
func (parser *Parser) HandleDiagnostics(diags hcl.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}

	if fn := parser.diagsWriterFunc; fn != nil {
		if err := fn(diags); err != nil {
			return err
		}
	}

	return errors.New(diags)
}

// GetDiagnosticsWriter returns a diagnostics emitter, colored when writing to a terminal.
func (parser *Parser) GetDiagnosticsWriter(writer io.Writer, disableColor bool) hcl.DiagnosticWriter {
	color := false

	if f, ok := writer.(*os.File); ok && !disableColor {
		color = isatty.IsTerminal(f.Fd())
	}

	return hcl.NewDiagnosticTextWriter(writer, parser.Files(), diagnosticsWidth, color)
}
