package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"travelapp/cmd/travel/ui"
	"travelapp/internal/geo"
	"travelapp/internal/nav"
	"travelapp/internal/trip"
)

var (
	planOrigin string
	tripJSON   bool
	tripRaw    bool
	mapWidth   int
)

// planCmd plans a trip from a free-text wish
var planCmd = &cobra.Command{
	Use:   "plan <wish>",
	Short: "Plan a trip from a free-text wish",
	Long: `Sends your travel and food wishes to the planner and prints the route,
suggested stops and shops for the way home. The result is cached and can be
shown again with 'travel results'.

Your position comes from --origin, the configured origin or an IP lookup,
and falls back to the default coordinates when none answers in time.

Example:
  travel plan "ke Lembang, makan siang sunda, pulangnya beli oleh-oleh"
  travel plan --origin -6.9147,107.6098 "kopi enak di Dago"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

// resultsCmd shows the cached trip
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the last planned trip",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func registerPlanCommands() {
	planCmd.Flags().StringVar(&planOrigin, "origin", "", "Start position as lat,lng")
	for _, c := range []*cobra.Command{planCmd, resultsCmd} {
		c.Flags().BoolVar(&tripJSON, "json", false, "Print the recommendation as JSON")
		c.Flags().BoolVar(&tripRaw, "raw", false, "Print markdown without terminal styling")
		c.Flags().IntVar(&mapWidth, "map-width", 60, "Route map width in columns (0 hides the map)")
	}
	rootCmd.AddCommand(planCmd, resultsCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c := cfg
	if planOrigin != "" && c != nil {
		if _, err := geo.ParseLatLng(planOrigin); err != nil {
			return fmt.Errorf("invalid --origin: %w", err)
		}
		copied := *c
		copied.Geo.Origin = planOrigin
		c = &copied
	}

	a, err := openAppWith(c)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.search.Submit(ctx, strings.Join(args, " "))
	if res.Warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Warning)
	}
	if res.Err != nil {
		if res.Redirect == nav.RouteLogin {
			return &outcomeError{msg: res.Message + " Run `travel login` first.", err: res.Err}
		}
		return &outcomeError{msg: res.Message, err: res.Err}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Planned from %s\n", geo.FormatLatLng(res.Origin))
	return printTrip(cmd.OutOrStdout(), res.Data)
}

func runResults(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.persister.Hydrate()
	data := a.trips.Data()
	if data.PrimaryRoute() == nil && !tripJSON {
		fmt.Fprintln(cmd.OutOrStdout(), ui.MsgNoTripData)
		return nil
	}
	return printTrip(cmd.OutOrStdout(), data)
}

func printTrip(w io.Writer, rec *trip.Recommendation) error {
	if tripJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	md := ui.TripMarkdown(rec)
	if md == "" {
		fmt.Fprintln(w, ui.MsgNoTripData)
		return nil
	}

	if mapWidth > 0 {
		if m, err := ui.RouteMap(rec, mapWidth, mapWidth/4+2); err == nil {
			fmt.Fprintln(w, m)
			fmt.Fprintln(w)
		}
	}

	if tripRaw {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(w)),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render trip: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// glamourStyle drops styling when w is not a terminal.
func glamourStyle(w io.Writer) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "notty"
	}
	dark := cfg != nil && cfg.UI.DarkMode
	return ui.DetectTheme(dark).GlamourStyle()
}
