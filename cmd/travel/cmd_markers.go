package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"travelapp/cmd/travel/ui"
	"travelapp/internal/api"
	"travelapp/internal/forms"
	"travelapp/internal/markers"
	"travelapp/internal/nav"
)

var (
	markersPage   int
	markersAll    bool
	markersFilter string
	markersSort   string
	markersJSON   bool

	placeName        string
	placeDescription string
	placeLat         string
	placeLng         string
	placeCategory    string

	deleteYes bool
)

// markersCmd groups the admin place commands
var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Manage saved places (admin)",
	Long: `List, add, rename and delete the places the trip planner draws from.

Every command here requires an admin account.`,
}

var markersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved places",
	Args:  cobra.NoArgs,
	RunE:  runMarkersList,
}

var markersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a place",
	Long: `Adds a place. Latitude and longitude are decimal degrees. Without
--category the first category is used.

Example:
  travel markers add --name "Kawah Putih" --description "Danau kawah" \
    --lat -7.1662 --lng 107.4021`,
	Args: cobra.NoArgs,
	RunE: runMarkersAdd,
}

var markersEditCmd = &cobra.Command{
	Use:   "edit <id> <new-name>",
	Short: "Rename a place",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMarkersEdit,
}

var markersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a place",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkersDelete,
}

// categoriesCmd lists place categories
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List place categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func registerMarkerCommands() {
	markersListCmd.Flags().IntVar(&markersPage, "page", 1, "Page to show")
	markersListCmd.Flags().BoolVar(&markersAll, "all", false, "Show every page")
	markersListCmd.Flags().StringVar(&markersFilter, "filter", "", "Only places whose name, description or category contains this text")
	markersListCmd.Flags().StringVar(&markersSort, "sort", "", "Sort by name or description; prefix with - for descending")
	markersListCmd.Flags().BoolVar(&markersJSON, "json", false, "Print the raw records as JSON")

	markersAddCmd.Flags().StringVar(&placeName, "name", "", "Place name")
	markersAddCmd.Flags().StringVar(&placeDescription, "description", "", "Description")
	markersAddCmd.Flags().StringVar(&placeLat, "lat", "", "Latitude")
	markersAddCmd.Flags().StringVar(&placeLng, "lng", "", "Longitude")
	markersAddCmd.Flags().StringVar(&placeCategory, "category", "", "Category id (default: first category)")

	markersDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")

	markersCmd.AddCommand(markersListCmd, markersAddCmd, markersEditCmd, markersDeleteCmd)
	rootCmd.AddCommand(markersCmd, categoriesCmd)
}

// openAdmin opens the app and requires an admin session.
func openAdmin() (*app, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	if err := nav.RequireAdmin(a.sessions.State()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// listingError turns a failed fetch into the message shown in place of the
// table. A rejected credential has already logged the session out.
func listingError(l *markers.Listing, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w: session expired", nav.ErrLoginRequired)
	}
	return &outcomeError{msg: l.ErrorMessage(), err: err}
}

func applySort(l *markers.Listing, order string) error {
	key := markers.SortNone
	switch strings.TrimPrefix(order, "-") {
	case "":
		return nil
	case "name":
		key = markers.SortName
	case "description":
		key = markers.SortDescription
	default:
		return fmt.Errorf("invalid --sort %q (valid: name, description)", order)
	}
	l.ToggleSort(key)
	if strings.HasPrefix(order, "-") {
		l.ToggleSort(key)
	}
	return nil
}

func runMarkersList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openAdmin()
	if err != nil {
		return err
	}
	defer a.Close()

	l := a.listing
	if err := applySort(l, markersSort); err != nil {
		return err
	}
	if err := l.Fetch(ctx); err != nil {
		return listingError(l, err)
	}
	l.SetFilter(markersFilter)

	var rows []markers.Row
	if markersAll || markersJSON {
		rows = l.All()
	} else {
		l.SetPage(markersPage - 1)
		rows = l.Page()
	}

	w := cmd.OutOrStdout()
	if markersJSON {
		records := make([]api.Marker, len(rows))
		for i, r := range rows {
			records[i] = r.Marker
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	t := ui.NewSimpleTable(markers.MsgTitle, "No", "ID", markers.Columns[1], markers.Columns[2])
	t.Empty = markers.MsgNoRows
	t.MaxCell = 48
	for _, r := range rows {
		t.AddRow(fmt.Sprint(r.No), r.Marker.ID.String(), r.Marker.Name, r.Marker.Description)
	}
	fmt.Fprint(w, t.View(ui.DefaultStyles()))
	if !markersAll && l.Total() > 0 {
		page, pages := l.PageIndex()
		fmt.Fprintf(w, "Page %d/%d, %d places\n", page+1, pages, l.Total())
	}
	return nil
}

func runMarkersAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openAdmin()
	if err != nil {
		return err
	}
	defer a.Close()

	first, err := a.places.LoadCategories(ctx)
	if err != nil {
		return &outcomeError{msg: a.places.CategoriesMessage(), err: err}
	}
	category := placeCategory
	if category == "" {
		category = first
	}

	out := a.places.Submit(ctx, forms.AddPlaceForm{
		Name:        placeName,
		Description: placeDescription,
		Latitude:    placeLat,
		Longitude:   placeLng,
		CategoryID:  category,
	})
	if !out.OK() {
		return outcomeErr(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	return nil
}

func runMarkersEdit(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openAdmin()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.listing.Fetch(ctx); err != nil {
		return listingError(a.listing, err)
	}
	id := api.ID(args[0])
	changed, err := a.listing.Rename(ctx, id, strings.Join(args[1:], " "))
	switch {
	case errors.Is(err, markers.ErrNotFound):
		return fmt.Errorf("no place with id %s", id)
	case err != nil:
		return &outcomeError{msg: markers.MutationMessage("mengedit", err), err: err}
	case !changed:
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change.")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Nama tempat berhasil diperbarui.")
	}
	return nil
}

func runMarkersDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openAdmin()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.listing.Fetch(ctx); err != nil {
		return listingError(a.listing, err)
	}
	id := api.ID(args[0])
	m, ok := a.listing.Lookup(id)
	if !ok {
		return fmt.Errorf("no place with id %s", id)
	}

	if !deleteYes {
		answer, err := newPrompter(cmd).line(fmt.Sprintf(markers.MsgDeletePrompt, m.Name) + " [y/N]")
		if err != nil {
			return err
		}
		if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := a.listing.Delete(ctx, id); err != nil {
		return &outcomeError{msg: markers.MutationMessage("menghapus", err), err: err}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Marker berhasil dihapus.")
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := nav.RequireLogin(a.sessions.State()); err != nil {
		return err
	}
	if _, err := a.places.LoadCategories(ctx); err != nil {
		return &outcomeError{msg: a.places.CategoriesMessage(), err: err}
	}
	t := ui.NewSimpleTable("Kategori", "ID", "Nama")
	t.Empty = "Belum ada kategori."
	for _, c := range a.places.Categories {
		t.AddRow(c.ID.String(), c.Name)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.View(ui.DefaultStyles()))
	return nil
}
