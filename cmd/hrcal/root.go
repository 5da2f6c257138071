package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"onehr/internal/client"
	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
)

const defaultAPIURL = "http://localhost:8080/api/v1"

type app struct {
	out    io.Writer
	errOut io.Writer
	getenv func(string) string
	now    func() time.Time

	apiURL    string
	token     string
	types     string
	toggle    []string
	weekStart string
	timeout   time.Duration
	verbose   bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hrcal",
		Short:         "OneHR calendar in the terminal",
		Long:          "Shows birthdays, work anniversaries, holidays, due-dated alerts and custom events from a OneHR server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level})))
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", envOr(a.getenv, "ONEHR_API_URL", defaultAPIURL), "API base url (env ONEHR_API_URL)")
	flags.StringVar(&a.token, "token", a.getenv("ONEHR_TOKEN"), "bearer token (env ONEHR_TOKEN)")
	flags.StringVar(&a.types, "types", "", "comma separated event types to show (default all)")
	flags.StringSliceVar(&a.toggle, "toggle", nil, "event types to toggle on or off, applied after --types")
	flags.StringVar(&a.weekStart, "week-start", "sunday", "first day of the week")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "overall request timeout")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log source failures and requests")

	root.AddCommand(
		newMonthCmd(a),
		newDayCmd(a),
		newUpcomingCmd(a),
		newExportCmd(a),
		newLoginCmd(a),
		newHolidaysCmd(a),
		newAlertsCmd(a),
		newEventsCmd(a),
	)
	return root
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *app) client() *client.Client {
	return client.New(a.apiURL, client.StaticToken(a.token))
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *app) today() civil.Day {
	return civil.Today(a.now(), nil)
}

func (a *app) visibility() (calendar.Visibility, error) {
	visible, err := calendar.ParseVisibility(a.types)
	if err != nil {
		return calendar.Visibility{}, err
	}
	for _, name := range a.toggle {
		t, err := calendar.ParseType(name)
		if err != nil {
			return calendar.Visibility{}, err
		}
		visible = visible.Toggle(t)
	}
	return visible, nil
}

// load refreshes a loader over years and returns the filtered view.
func (a *app) load(cmd *cobra.Command, years ...int) (calendar.View, error) {
	visible, err := a.visibility()
	if err != nil {
		return calendar.View{}, err
	}
	weekStart, err := calendar.ParseWeekday(a.weekStart)
	if err != nil {
		return calendar.View{}, err
	}

	ctx, cancel := a.context(cmd)
	defer cancel()

	loader := client.NewLoader(a.client(), years...)
	defer loader.Close()
	res, err := loader.Refresh(ctx)
	if err != nil {
		return calendar.View{}, err
	}
	if len(res.Failed) > 0 {
		names := make([]string, 0, len(res.Failed))
		for src, srcErr := range loader.Failed() {
			names = append(names, fmt.Sprintf("%s (%v)", src, srcErr))
		}
		sort.Strings(names)
		fmt.Fprintf(a.errOut, "warning: could not load %s\n", strings.Join(names, ", "))
	}
	return loader.View(visible, weekStart), nil
}

func newMonthCmd(a *app) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show a month grid with today's and upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := a.today()
			if year == 0 {
				year = today.Year
			}
			if month == 0 {
				month = int(today.Month)
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be between 1 and 12")
			}
			horizon := today.AddDays(7)
			view, err := a.load(cmd, year, today.Year, horizon.Year)
			if err != nil {
				return err
			}
			renderMonth(a.out, view.MonthGrid(year, time.Month(month)), today)
			fmt.Fprintln(a.out)
			renderSection(a.out, "Today", view.Today(today))
			renderSection(a.out, "Next 7 days", view.Upcoming(today, 7))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func newDayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "List the events of one day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.today()
			if len(args) == 1 {
				parsed, err := civil.Parse(args[0])
				if err != nil {
					return err
				}
				day = parsed
			}
			view, err := a.load(cmd, day.Year)
			if err != nil {
				return err
			}
			renderSection(a.out, day.Time().Format("Monday, January 2, 2006"), view.Day(day))
			return nil
		},
	}
}

func newUpcomingCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List events in the coming days, soonest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 366 {
				return fmt.Errorf("days must be between 1 and 366")
			}
			today := a.today()
			view, err := a.load(cmd, today.Year, today.AddDays(days).Year)
			if err != nil {
				return err
			}
			renderSection(a.out, fmt.Sprintf("Next %d days", days), view.Upcoming(today, days))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "window length in days")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		year, month int
		format      string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a month as ICS or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := a.today()
			if year == 0 {
				year = today.Year
			}
			if month == 0 {
				month = int(today.Month)
			}
			f := client.ExportFormat(strings.ToLower(format))
			if f != client.ExportICS && f != client.ExportPDF {
				return fmt.Errorf("format must be ics or pdf")
			}
			visible, err := a.visibility()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()
			body, err := a.client().Export(ctx, year, time.Month(month), f, visible)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = a.out.Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "wrote %s (%d bytes)\n", output, len(body))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	cmd.Flags().StringVar(&format, "format", "ics", "ics or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Print a bearer token for ONEHR_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprint(a.errOut, "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(a.errOut)
				if err != nil {
					return err
				}
				password = string(raw)
			}
			if password == "" {
				return errors.New("--password is required when stdin is not a terminal")
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			session, err := client.New(a.apiURL, nil).Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, session.Token)
			fmt.Fprintf(a.errOut, "signed in as %s (%s), expires %s\n", email, session.User.Role, session.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newHolidaysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Manage company holidays",
	}

	var year int
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Add the US federal holidays of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = a.today().Year
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			res, err := a.client().InitializeUSHolidays(ctx, year)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d: %d added, %d already present\n", res.Year, res.Inserted, res.Skipped)
			return nil
		},
	}
	initCmd.Flags().IntVar(&year, "year", 0, "year (default current)")

	var name, date, description string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a company holiday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			h, err := a.client().CreateHoliday(ctx, client.HolidayInput{Name: name, Date: date, Description: description})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s %s\n", calendar.HolidayID(h.ID), h.Date, h.Name)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "holiday name")
	addCmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD")
	addCmd.Flags().StringVar(&description, "description", "", "description")

	cmd.AddCommand(initCmd, addCmd)
	return cmd
}

func newAlertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Calendar alert notifications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Notify HR of upcoming birthdays, anniversaries and holidays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			run, err := a.client().GenerateCalendarAlerts(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s to %s: %d events, %d recipients, %d created, %d skipped\n",
				run.From, run.To, run.Events, run.Recipients, run.Created, run.Skipped)
			return nil
		},
	})
	return cmd
}

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Create, edit and delete custom calendar events",
	}

	var in client.EventInput
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a custom event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			ev, err := a.client().CreateEvent(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s %s\n", calendar.CustomID(ev.ID), ev.Date, ev.Title)
			return nil
		},
	}
	bindEventFlags(addCmd, &in)

	var edit client.EventInput
	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Replace a custom event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			ev, err := a.client().UpdateEvent(ctx, args[0], edit)
			if err != nil {
				return explainEventError(err)
			}
			fmt.Fprintf(a.out, "%s %s %s\n", calendar.CustomID(ev.ID), ev.Date, ev.Title)
			return nil
		},
	}
	bindEventFlags(editCmd, &edit)

	rmCmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a custom event or holiday",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.client().DeleteEvent(ctx, args[0]); err != nil {
				return explainEventError(err)
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(addCmd, editCmd, rmCmd)
	return cmd
}

func bindEventFlags(cmd *cobra.Command, in *client.EventInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Date, "date", "", "date YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Color, "color", "", "#rrggbb")
	cmd.Flags().StringVar(&in.Priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&in.Recurrence, "rrule", "", "RFC 5545 recurrence rule, e.g. FREQ=YEARLY")
}

func explainEventError(err error) error {
	if client.IsCode(err, "read_only_event") {
		return errors.New("birthdays, anniversaries and notification alerts are generated automatically and cannot be changed")
	}
	return err
}
