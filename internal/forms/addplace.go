package forms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"travelapp/internal/api"
	"travelapp/internal/logging"
	"travelapp/internal/nav"
)

const (
	MsgPlaceAdded        = "Place successfully added!"
	MsgAllFieldsRequired = "All fields are required."
	MsgCoordsNotNumbers  = "Latitude and Longitude must be numbers."
	MsgCoordsOutOfRange  = "Latitude must be within ±90 and Longitude within ±180."
	MsgSelectCategory    = "Please select a category."
	MsgBaseURLMissing    = "API Base URL is not configured. Please set TRAVEL_API_BASE_URL."
)

// ErrCategoriesUnavailable blocks submission until categories load.
var ErrCategoriesUnavailable = errors.New("categories not loaded")

// PlacesAPI is the part of the API client the add-place form uses.
type PlacesAPI interface {
	ListCategories(ctx context.Context) ([]api.Category, error)
	CreateMarker(ctx context.Context, m api.NewMarker) (*api.Marker, error)
}

// AddPlaceForm is the raw add-place input. Coordinates stay strings until
// validated.
type AddPlaceForm struct {
	Name        string `validate:"required"`
	Description string `validate:"required"`
	Latitude    string `validate:"required,numeric,latitude"`
	Longitude   string `validate:"required,numeric,longitude"`
	CategoryID  string `validate:"required"`
}

// Validate checks the form in the order the user should fix it: missing
// fields, then number format, then range, then category.
func (f AddPlaceForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}

	var missing, notNumber, outOfRange, noCategory *ValidationError
	for _, fe := range verrs {
		field := fe.StructField()
		switch {
		case field == "CategoryID":
			noCategory = &ValidationError{Field: field, Message: MsgSelectCategory}
		case fe.Tag() == "required":
			if missing == nil {
				missing = &ValidationError{Field: field, Message: MsgAllFieldsRequired}
			}
		case fe.Tag() == "numeric":
			if notNumber == nil {
				notNumber = &ValidationError{Field: field, Message: MsgCoordsNotNumbers}
			}
		default:
			if outOfRange == nil {
				outOfRange = &ValidationError{Field: field, Message: MsgCoordsOutOfRange}
			}
		}
	}
	for _, e := range []*ValidationError{missing, notNumber, outOfRange, noCategory} {
		if e != nil {
			return e
		}
	}
	return &ValidationError{Message: MsgAllFieldsRequired}
}

// AddPlace drives the add-place form: categories first, then submit.
type AddPlace struct {
	client PlacesAPI
	log    *zap.Logger

	Categories []api.Category
	// CategoriesErr is set when loading failed; submit stays blocked.
	CategoriesErr error
}

// NewAddPlace creates the form controller.
func NewAddPlace(client PlacesAPI) *AddPlace {
	return &AddPlace{client: client, log: logging.For(logging.CategoryMarkers)}
}

// LoadCategories fetches the category list and returns the id to preselect
// (the first category), or "" when there are none.
func (a *AddPlace) LoadCategories(ctx context.Context) (string, error) {
	cats, err := a.client.ListCategories(ctx)
	if err != nil {
		a.log.Warn("could not load categories", zap.Error(err))
		a.Categories = nil
		a.CategoriesErr = err
		return "", err
	}
	a.Categories = cats
	a.CategoriesErr = nil
	if len(cats) == 0 {
		return "", nil
	}
	return cats[0].ID.String(), nil
}

// CategoriesMessage is the text shown in place of the category picker when
// loading failed.
func (a *AddPlace) CategoriesMessage() string {
	switch err := a.CategoriesErr; {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrMissingBaseURL):
		return "API Base URL is not configured."
	case errors.Is(err, api.ErrUnauthorized):
		return "Authentication token not found. Please log in."
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return "Failed to load categories: " + apiErr.Message
		}
		return "Failed to load categories: " + err.Error()
	}
}

// CategoryName resolves an id from the loaded list.
func (a *AddPlace) CategoryName(id string) string {
	for _, c := range a.Categories {
		if c.ID.String() == id {
			return c.Name
		}
	}
	return ""
}

// Submit validates f and creates the marker. On success the caller refreshes
// the listing and resets the form.
func (a *AddPlace) Submit(ctx context.Context, f AddPlaceForm) Outcome {
	trimAll(&f.Name, &f.Description, &f.Latitude, &f.Longitude, &f.CategoryID)

	if a.CategoriesErr != nil {
		err := fmt.Errorf("%w: %v", ErrCategoriesUnavailable, a.CategoriesErr)
		return Outcome{Message: a.CategoriesMessage(), Err: err}
	}
	if err := f.Validate(); err != nil {
		return Outcome{Message: err.Error(), Err: err}
	}

	// Validate guarantees both parse.
	lat, _ := strconv.ParseFloat(f.Latitude, 64)
	lng, _ := strconv.ParseFloat(f.Longitude, 64)

	created, err := a.client.CreateMarker(ctx, api.NewMarker{
		Name:        f.Name,
		Description: f.Description,
		Latitude:    lat,
		Longitude:   lng,
		CategoryID:  api.ID(f.CategoryID),
	})
	if err != nil {
		a.log.Warn("could not add place", zap.String("name", f.Name), zap.Error(err))
		return Outcome{Message: submitMessage(err), Err: err}
	}

	a.log.Info("place added", zap.String("id", created.ID.String()), zap.String("name", f.Name))
	return Outcome{Message: MsgPlaceAdded, Redirect: nav.RouteMarkers}
}

func submitMessage(err error) string {
	if errors.Is(err, api.ErrMissingBaseURL) {
		return MsgBaseURLMissing
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return "An error occurred: " + apiErr.Message
	}
	return "An error occurred: " + strings.TrimSpace(err.Error())
}
