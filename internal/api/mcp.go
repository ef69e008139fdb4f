package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DealerGen/bidbuddy/internal/funnel"
	"github.com/DealerGen/bidbuddy/internal/pricing"
)

// NewMCPServer creates an MCP server exposing the valuation lookup and
// profit calculator to auction-page assistants, plus the funnel board
// as a readable resource.
func NewMCPServer(deps AppDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"bidbuddy",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("bidbuddy — car auction bid management: valuation lookups, bid price calculation, and the qualification funnel."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_retail_valuation",
			mcp.WithDescription("Look up the retail valuation for a vehicle registration."),
			mcp.WithString("registration", mcp.Description("Vehicle registration mark"), mcp.Required()),
		),
		mcpGetRetailValuation(deps),
	)

	s.AddTool(
		mcp.NewTool("calculate_profit",
			mcp.WithDescription("Calculate the recommended bid price and net profit for a retail valuation and a set of cost inputs."),
			mcp.WithNumber("retailValuation", mcp.Description("Retail valuation in GBP"), mcp.Required()),
			mcp.WithNumber("delivery", mcp.Description("Delivery cost")),
			mcp.WithNumber("mot", mcp.Description("MOT cost")),
			mcp.WithNumber("service", mcp.Description("Service cost")),
			mcp.WithNumber("cosmetic", mcp.Description("Cosmetic repair cost")),
			mcp.WithNumber("warrantyAndValet", mcp.Description("Warranty and valet cost")),
			mcp.WithNumber("desiredNetProfit", mcp.Description("Desired net profit after VAT and costs")),
		),
		mcpCalculateProfit(),
	)

	s.AddResource(
		mcp.NewResource(
			"funnel://board",
			"Bidding Funnel",
			mcp.WithResourceDescription("The five-stage bidding board for the active record set"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFunnel(deps),
	)

	return s
}

func mcpGetRetailValuation(deps AppDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		registration, err := req.RequireString("registration")
		if err != nil {
			return mcpError("registration is required"), nil
		}

		v, err := deps.Valuations.Lookup(ctx, registration)
		if err != nil {
			return mcpError(fmt.Sprintf("no valuation for %s: %v", registration, err)), nil
		}

		b, err := json.Marshal(v)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal valuation: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCalculateProfit() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		retailValuation, err := req.RequireFloat("retailValuation")
		if err != nil {
			return mcpError("retailValuation is required"), nil
		}

		in := pricing.Inputs{
			Delivery:         req.GetFloat("delivery", 0),
			MOT:              req.GetFloat("mot", 0),
			Service:          req.GetFloat("service", 0),
			Cosmetic:         req.GetFloat("cosmetic", 0),
			WarrantyAndValet: req.GetFloat("warrantyAndValet", 0),
			DesiredNetProfit: req.GetFloat("desiredNetProfit", 0),
		}

		res := pricing.CalculateForValuation(retailValuation, in)

		b, err := json.Marshal(map[string]string{
			"retailValuation": res.RetailValuation.StringFixed(2),
			"carwowFee":       res.CarwowFee.StringFixed(2),
			"bidPrice":        res.BidPrice.StringFixed(2),
			"vatAmount":       res.VATAmount.StringFixed(2),
			"actualNetProfit": res.ActualNetProfit.StringFixed(2),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceFunnel(deps AppDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		records, err := deps.Store.ListVehicles()
		if err != nil {
			return nil, fmt.Errorf("failed to load records: %w", err)
		}

		params, err := loadParameters(deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to load parameters: %w", err)
		}

		board := funnel.Group(records, params, time.Now().Year())

		b, err := json.Marshal(board)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal board: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
