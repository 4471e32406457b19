package api

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
)

// NewMCPServer returns an MCP server with the cleaner tools registered.
func NewMCPServer(svc *Service, version string, logger *zap.Logger) *server.MCPServer {
	srv := server.NewMCPServer("touchstone-cleaner", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, svc, logger)
	return srv
}

// RegisterMCPTools registers the cleaner MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, svc *Service, logger *zap.Logger) {
	if logger == nil {
		logger = zap.L()
	}
	registerCleanName(srv, svc, logger)
	registerResolveCountry(srv, svc, logger)
	registerValidateID(srv, svc, logger)
	registerListLegalForms(srv, svc, logger)
}

func registerCleanName(srv *server.MCPServer, svc *Service, logger *zap.Logger) {
	tool := mcp.NewTool("clean_name",
		mcp.WithDescription("Normalize company names: punctuation rules, legal-form abbreviations expanded to their canonical term, whitespace collapsed."),
		mcp.WithString("names", mcp.Required(), mcp.Description("Comma-separated company names, or a single name")),
		mcp.WithString("country", mcp.Description("ISO 3166 alpha-2 code selecting the legal-form dictionary (e.g. fr)")),
		mcp.WithString("language", mcp.Description("Language of the dictionary; all languages of the country when empty")),
		mcp.WithBoolean("merge", mcp.Description("Also use the default (us/en) legal forms the country lacks")),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "clean_name")(cleanEndpoint(svc)),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			raw, _ := args["names"].(string)
			country, _ := args["country"].(string)
			language, _ := args["language"].(string)
			merge, _ := args["merge"].(bool)
			return &kit.MCPDecodeResult{Request: &cleanReq{
				Names:    splitList(raw),
				Country:  country,
				Language: language,
				Merge:    merge,
			}}, nil
		})
}

func registerResolveCountry(srv *server.MCPServer, svc *Service, logger *zap.Logger) {
	tool := mcp.NewTool("resolve_country",
		mcp.WithDescription("Resolve a country code or (possibly misspelled) name to its ISO 3166 record."),
		mcp.WithString("value", mcp.Required(), mcp.Description("Alpha-2, alpha-3 or country name")),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "resolve_country")(countryEndpoint(svc)),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			v, _ := req.GetArguments()["value"].(string)
			return &kit.MCPDecodeResult{Request: &countryReq{Value: v}}, nil
		})
}

func registerValidateID(srv *server.MCPServer, svc *Service, logger *zap.Logger) {
	tool := mcp.NewTool("validate_id",
		mcp.WithDescription("Clean and validate a banking identifier (LEI, ISIN or SEDOL) by its check digits."),
		mcp.WithString("type", mcp.Required(), mcp.Description("lei, isin or sedol")),
		mcp.WithString("id", mcp.Required(), mcp.Description("The identifier; spaces are ignored")),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "validate_id")(idEndpoint(svc)),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			typ, _ := args["type"].(string)
			id, _ := args["id"].(string)
			return &kit.MCPDecodeResult{Request: &idReq{Type: typ, ID: id}}, nil
		})
}

func registerListLegalForms(srv *server.MCPServer, svc *Service, logger *zap.Logger) {
	tool := mcp.NewTool("list_legal_forms",
		mcp.WithDescription("List supported countries and languages, or the legal-form terms of one country."),
		mcp.WithString("country", mcp.Description("Alpha-2 code; omit to list the supported countries")),
		mcp.WithString("language", mcp.Description("Language of the dictionary")),
		mcp.WithBoolean("merge", mcp.Description("Fill in default legal forms the country lacks")),
	)

	list := kit.Logging(logger, "list_legal_forms")(listLegalFormsEndpoint(svc))
	one := kit.Logging(logger, "legal_forms")(legalFormsEndpoint(svc))
	kit.RegisterMCPTool(srv, tool, func(ctx context.Context, request any) (any, error) {
		if request == nil {
			return list(ctx, nil)
		}
		return one(ctx, request)
	}, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		country, _ := args["country"].(string)
		if country == "" {
			return &kit.MCPDecodeResult{}, nil
		}
		language, _ := args["language"].(string)
		merge, _ := args["merge"].(bool)
		return &kit.MCPDecodeResult{Request: &legalFormsReq{Country: country, Language: language, Merge: merge}}, nil
	})
}
