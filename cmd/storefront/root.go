package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// cli carries the state shared by every command.
type cli struct {
	app    *app.App
	cfg    *config.Client
	logger *slog.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	apiURL   string
	appOpts  []app.Option
	quietHdr bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer, opts ...app.Option) int {
	c := &cli{in: in, out: out, errOut: errOut, appOpts: opts}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(context.WithoutCancel(ctx)); cerr != nil {
			c.logger.Warn("shutdown error", slog.String("error", cerr.Error()))
		}
	}
	if err != nil {
		c.printError(err)
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Shop the storefront from your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "storefront API base URL (overrides STOREFRONT_API_BASE_URL)")
	root.PersistentFlags().BoolVarP(&c.quietHdr, "quiet", "q", false, "do not print the cart header after cart changes")

	root.AddCommand(
		c.loginCmd(),
		c.signupCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.productsCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.profileCmd(),
		c.themeCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = c.apiURL
	}
	c.cfg = cfg
	c.logger = logger.NewCLI("storefront", cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(ctx, cfg, c.logger, c.appOpts...)
	if err != nil {
		return err
	}
	c.app = a
	if !c.quietHdr {
		c.attachHeader(ctx)
	}
	return nil
}

// printError writes the user-facing line for err, with a login hint when the
// session is missing or expired.
func (c *cli) printError(err error) {
	fmt.Fprintf(c.errOut, "Error: %s\n", apperrors.Message(err, err.Error()))

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && len(appErr.Fields) > 1 {
		for _, field := range slices.Sorted(maps.Keys(appErr.Fields)) {
			fmt.Fprintf(c.errOut, "  %s: %s\n", field, appErr.Fields[field])
		}
	}
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		fmt.Fprintln(c.errOut, "Please log in first: storefront login --email <email>")
	}
}
