// Package mcp exposes invoice extraction as a Model Context Protocol tool.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/invoice"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

// ToolExtractInvoice is the name of the extraction tool
const ToolExtractInvoice = "extract_invoice"

// Server represents the MCP server instance
type Server struct {
	processor   invoice.ProcessorInterface
	maxFileSize int64
	mcpServer   *server.MCPServer
	logger      *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(name, version string, processor invoice.ProcessorInterface, maxFileSize int64, logger *zap.Logger) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		processor:   processor,
		maxFileSize: maxFileSize,
		mcpServer:   mcpServer,
		logger:      logger.Named("mcp"),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		ToolExtractInvoice,
		mcp.WithDescription("Extract GST invoice rows (invoice number, date, receiver, HSN line items, tax amounts and total) from a PDF file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the invoice PDF"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractInvoice)
}

func (s *Server) handleExtractInvoice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := utils.ValidatePDF(path, s.maxFileSize); err != nil {
		// Structural problems still get an extraction attempt
		if !errors.Is(err, utils.ErrMalformedPDF) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Warn("PDF failed structural validation", zap.String("path", path), zap.Error(err))
	}

	doc := s.processor.Process(ctx, path)

	payload, err := json.MarshalIndent(doc.Rows, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode rows: %v", err)), nil
	}

	s.logger.Info("Tool call completed",
		zap.String("tool", ToolExtractInvoice),
		zap.String("path", path),
		zap.Int("rows", len(doc.Rows)))

	return mcp.NewToolResultText(string(payload)), nil
}

// Run serves the protocol over stdin/stdout until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves the protocol over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("Starting MCP server in stdio mode")

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
