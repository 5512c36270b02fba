package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/schools-api/internal/client/listing"
	"github.com/aanand-mishra/schools-api/internal/client/submit"
	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/aanand-mishra/schools-api/internal/validation"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in: run `schoolsctl login` first")

// fieldFlags maps flag names to form fields, in form order.
var fieldFlags = []struct {
	flag, field, usage string
}{
	{"name", types.FieldSchoolName, "school name"},
	{"email", types.FieldEmailAddress, "contact email address"},
	{"address", types.FieldAddress, "street address"},
	{"city", types.FieldCity, "city"},
	{"state", types.FieldState, "state"},
	{"contact", types.FieldContactNumber, "contact phone number"},
}

// listingNavigator records the redirect; the caller prints the listing
// once the success message is out.
type listingNavigator struct{ navigated bool }

func (n *listingNavigator) ToListing(context.Context) { n.navigated = true }

type writerNotifier struct{ a *app }

func (n writerNotifier) Alert(msg string) { fmt.Fprintln(n.a.errOut, msg) }

func newAddCmd(a *app) *cobra.Command {
	values := make(map[string]*string, len(fieldFlags))
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a school",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.LoggedIn() {
				return errNotLoggedIn
			}

			form := submit.NewForm(validation.New())
			for _, ff := range fieldFlags {
				if err := form.Set(ff.field, *values[ff.flag]); err != nil {
					return err
				}
			}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				form.SetImage(filepath.Base(imagePath), data)
			}

			nav := &listingNavigator{}
			pipeline := submit.New(form, a.api(), nav, writerNotifier{a})

			id, err := pipeline.Submit(cmd.Context())
			if errors.Is(err, submit.ErrInvalidDraft) {
				a.printFieldErrors(form.Errors())
				return errReported
			}
			if err != nil {
				// the notifier already told the user
				return errReported
			}

			fmt.Fprintf(a.out, "School added (id %d)\n\n", id)
			if nav.navigated {
				return a.showListing(cmd.Context(), "")
			}
			return nil
		},
	}

	for _, ff := range fieldFlags {
		values[ff.flag] = cmd.Flags().String(ff.flag, "", ff.usage)
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "path to a school picture (optional)")
	return cmd
}

func (a *app) printFieldErrors(errs validation.FieldErrors) {
	for _, ff := range fieldFlags {
		if msg, ok := errs[ff.field]; ok {
			fmt.Fprintf(a.errOut, "--%s: %s\n", ff.flag, msg)
		}
	}
}

func newListCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schools, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showListing(cmd.Context(), search)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", listing.SearchHint)
	return cmd
}

func (a *app) showListing(ctx context.Context, search string) error {
	view := listing.New(a.api())
	view.Load(ctx)
	view.SetSearch(search)

	if view.Phase() == listing.Failed {
		if err := view.Text(a.errOut); err != nil {
			return err
		}
		return errReported
	}
	return view.Text(a.out)
}
