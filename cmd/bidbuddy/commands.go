package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DealerGen/bidbuddy/internal/config"
	"github.com/DealerGen/bidbuddy/internal/vehicle"
)

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an auction listing CSV, replacing the active record set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Uploading %s...", args[0])
		resp, err := client.postCSV(cmd.Context(), "/vehicles/import", data)
		if err != nil {
			return err
		}

		var result map[string]int
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Imported %d vehicles (%d valuation lookups queued)", result["imported"], result["queued"])
		return nil
	},
}

// --- followup ---

var followupCmd = &cobra.Command{
	Use:   "followup <file>",
	Short: "Merge an annotated follow-up CSV into the record set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postCSV(cmd.Context(), "/vehicles/followup", data)
		if err != nil {
			return err
		}

		var result map[string]int
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if dropped := result["received"] - result["matched"]; dropped > 0 {
			printWarning("%d rows had no matching vehicle and were dropped", dropped)
		}
		printSuccess("Merged %d of %d rows", result["matched"], result["received"])
		return nil
	},
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the record set as a simplified VRM,MILEAGE CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/vehicles/export")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		var writer io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		}

		if _, err := io.Copy(writer, resp.Body); err != nil {
			return err
		}

		if output != "" {
			printSuccess("Exported to %s", output)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- vehicles ---

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "Inspect the active record set",
}

var vehiclesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all vehicles in the record set",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/vehicles")
		if err != nil {
			return err
		}

		var records []vehicle.Record
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No vehicles in the record set.")
			return nil
		}

		for _, rec := range records {
			fmt.Printf("%s  %-10s %-12s %-12s %7d mi  %s\n",
				colorize(ansiCyan, fmt.Sprintf("%-10s", rec.ID)),
				rec.Make,
				rec.Model,
				string(rec.Status),
				rec.Mileage,
				formatValuation(rec.RetailValuation),
			)
		}
		return nil
	},
}

var vehiclesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single vehicle as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/vehicles/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var rec any
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	vehiclesCmd.AddCommand(vehiclesListCmd)
	vehiclesCmd.AddCommand(vehiclesShowCmd)
}

// --- funnel ---

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "View the bidding funnel and move vehicles between stages",
}

var funnelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the five-stage bidding board",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/funnel")
		if err != nil {
			return err
		}

		var board map[string][]vehicle.Record
		if err := decodeJSON(resp, &board); err != nil {
			return err
		}

		for _, stage := range []string{"qualified", "bid", "noBid", "won", "lost"} {
			records := board[stage]
			fmt.Printf("\n%s (%d)\n", colorize(ansiBold, stage), len(records))
			for _, rec := range records {
				line := fmt.Sprintf("  %s %s %s", rec.ID, rec.Make, rec.Model)
				if rec.WonPrice != nil {
					line += "  won at " + formatMoney(*rec.WonPrice)
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

var funnelMoveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move a vehicle to another funnel stage",
	Long: `Move a vehicle to another funnel stage.

Valid statuses: new, qualified, bid, noBid, won, lost.

Examples:
  bidbuddy funnel move DF17UXG bid
  bidbuddy funnel move DF17UXG won --won-price 11800`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, status := args[0], args[1]

		body := map[string]any{"status": status}
		if cmd.Flags().Changed("won-price") {
			price, _ := cmd.Flags().GetFloat64("won-price")
			body["wonPrice"] = price
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postJSON(cmd.Context(), "/vehicles/"+url.PathEscape(id)+"/status", body)
		if err != nil {
			return err
		}

		var rec vehicle.Record
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		printSuccess("Moved %s to %s", rec.ID, rec.Status)
		return nil
	},
}

func init() {
	funnelMoveCmd.Flags().Float64("won-price", 0, "price paid when moving to won")
	funnelCmd.AddCommand(funnelShowCmd)
	funnelCmd.AddCommand(funnelMoveCmd)
}

// --- params ---

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show or update the bidding parameters",
}

var paramsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current bidding parameters as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/parameters")
		if err != nil {
			return err
		}

		var params vehicle.Parameters
		if err := decodeJSON(resp, &params); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(params)
	},
}

var paramsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a single bidding parameter",
	Long: `Update a single bidding parameter.

Keys: maxPrice, maxAge, maxMileage, minRetailRating, maxDaysToSell,
maxPreviousOwners, serviceHistory (comma-separated list).

Examples:
  bidbuddy params set maxMileage 80000
  bidbuddy params set serviceHistory full,part`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/parameters")
		if err != nil {
			return err
		}

		var params vehicle.Parameters
		if err := decodeJSON(resp, &params); err != nil {
			return err
		}

		if err := applyParam(&params, key, value); err != nil {
			return err
		}

		putResp, err := client.putJSON(cmd.Context(), "/parameters", params)
		if err != nil {
			return err
		}
		if err := decodeJSON(putResp, &params); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func applyParam(p *vehicle.Parameters, key, value string) error {
	switch key {
	case "maxPrice":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %w", key, err)
		}
		p.MaxPrice = f
	case "minRetailRating":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %w", key, err)
		}
		p.MinRetailRating = f
	case "maxAge", "maxMileage", "maxDaysToSell", "maxPreviousOwners":
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		switch key {
		case "maxAge":
			p.MaxAge = i
		case "maxMileage":
			p.MaxMileage = i
		case "maxDaysToSell":
			p.MaxDaysToSell = i
		case "maxPreviousOwners":
			p.MaxPreviousOwners = i
		}
	case "serviceHistory":
		tags := strings.Split(value, ",")
		for i := range tags {
			tags[i] = strings.TrimSpace(tags[i])
		}
		p.ServiceHistory = tags
	default:
		return fmt.Errorf("unknown parameter: %q", key)
	}
	return nil
}

func init() {
	paramsCmd.AddCommand(paramsShowCmd)
	paramsCmd.AddCommand(paramsSetCmd)
}

// --- valuation ---

var valuationCmd = &cobra.Command{
	Use:   "valuation <registration>",
	Short: "Look up the retail valuation of a qualified vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/getRetailValuation?reg="+url.QueryEscape(args[0]))
		if err != nil {
			return err
		}

		var result struct {
			Registration    string  `json:"registration"`
			Make            string  `json:"make"`
			Model           string  `json:"model"`
			RetailValuation float64 `json:"retailValuation"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s %s %s: %s\n", result.Registration, result.Make, result.Model, formatMoney(result.RetailValuation))
		return nil
	},
}

// --- calc ---

var calcCmd = &cobra.Command{
	Use:   "calc <retail-valuation>",
	Short: "Calculate the recommended bid price for a valuation",
	Long: `Calculate the recommended bid price for a valuation.

Example:
  bidbuddy calc 15000 --delivery 100 --service 150 --desired-profit 1000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		retailValuation, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid valuation: %w", err)
		}

		inputs := map[string]float64{}
		for flag, field := range map[string]string{
			"delivery":       "delivery",
			"mot":            "mot",
			"service":        "service",
			"cosmetic":       "cosmetic",
			"warranty-valet": "warrantyAndValet",
			"desired-profit": "desiredNetProfit",
		} {
			v, _ := cmd.Flags().GetFloat64(flag)
			inputs[field] = v
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{
			"retailValuation": retailValuation,
			"inputs":          inputs,
		}
		resp, err := client.postJSON(cmd.Context(), "/api/calculateProfit", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStatus("Retail valuation", "£%s", result["retailValuation"])
		printStatus("Carwow fee", "£%s", result["carwowFee"])
		printStatus("Bid price", "£%s", result["bidPrice"])
		printStatus("VAT amount", "£%s", result["vatAmount"])
		printStatus("Net profit", "£%s", result["actualNetProfit"])
		return nil
	},
}

func init() {
	calcCmd.Flags().Float64("delivery", 0, "delivery cost")
	calcCmd.Flags().Float64("mot", 0, "MOT cost")
	calcCmd.Flags().Float64("service", 0, "service cost")
	calcCmd.Flags().Float64("cosmetic", 0, "cosmetic repair cost")
	calcCmd.Flags().Float64("warranty-valet", 0, "warranty and valet cost")
	calcCmd.Flags().Float64("desired-profit", 0, "desired net profit")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(ansiBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
