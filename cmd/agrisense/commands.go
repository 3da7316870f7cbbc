package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go-agrisense/apiclient"
	"go-agrisense/flows"
	"go-agrisense/guard"
	"go-agrisense/models"
	"go-agrisense/session"
)

// newRootCmd cleanup 释放 PersistentPreRunE 创建的依赖，命令失败时同样需要调用
func newRootCmd(factory appFactory) (root *cobra.Command, cleanup func()) {
	var (
		configFile string
		verbose    bool
		a          *app
	)
	root = &cobra.Command{
		Use:           "agrisense",
		Short:         "AgriSense crop recommendation client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = factory(configFile, verbose, cmd.OutOrStdout())
			return err
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to agrisense.yaml")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logging")

	current := func() *app { return a }
	root.AddCommand(
		newLoginCmd(current),
		newRegisterCmd(current),
		newLogoutCmd(current),
		newWhoamiCmd(current),
		newDashboardCmd(current),
		newPredictCmd(current),
		newProfileCmd(current),
		newRecordsCmd(current),
		newOpenCmd(current),
	)
	return root, func() {
		if a != nil {
			a.close()
		}
	}
}

func newLoginCmd(current func() *app) *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			sess, err := a.store.Login(cmd.Context(), creds)
			if err != nil {
				a.println(errorStyle.Render("Login failed: " + err.Error()))
				return errReported
			}
			a.println("Signed in as " + titleStyle.Render(sess.Identity.DisplayName()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(current func() *app) *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			sess, err := a.store.Register(cmd.Context(), req)
			if err != nil {
				a.println(errorStyle.Render("Registration failed: " + err.Error()))
				return errReported
			}
			a.println("Account created. Signed in as " + titleStyle.Render(sess.Identity.DisplayName()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (at least 6 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session and revoke its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			// 服务不可用时仍然清除本地会话
			_, _ = a.store.Resolve(cmd.Context())
			a.store.Logout(cmd.Context())
			a.println("Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			sess, err := a.store.Resolve(cmd.Context())
			if err != nil {
				a.println(errorStyle.Render(flows.FailureMessage(err)))
				return errReported
			}
			if !sess.Authenticated() {
				a.println(mutedStyle.Render("Not signed in."))
				return nil
			}
			a.println(renderUser(sess.Identity))
			return nil
		},
	}
}

func newDashboardCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show recent predictions and disease detections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd, current())
		},
	}
}

func runDashboard(cmd *cobra.Command, a *app) error {
	_, sess, err := a.enter(cmd.Context(), guard.DashboardPath)
	if err != nil {
		return err
	}
	showDashboard(cmd, a, sess)
	return nil
}

func showDashboard(cmd *cobra.Command, a *app, sess session.Session) {
	history := flows.NewHistoryFlow(a.client, a.logger)
	history.Load(cmd.Context(), sess)
	a.println(renderDashboard(history.Dashboard(sess)))
}

func newPredictCmd(current func() *app) *cobra.Command {
	values := make(map[string]*string, len(models.SoilFields))
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Recommend a crop and fertilizer for a soil sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if _, _, err := a.enter(cmd.Context(), guard.CropPredictionPath); err != nil {
				return err
			}

			var sample models.SoilSample
			for _, f := range models.SoilFields {
				if err := sample.Set(f, *values[f]); err != nil {
					return err
				}
			}

			flow := flows.NewPredictionFlow(a.client, flows.WithLogger(a.logger))
			_, err := flow.Submit(cmd.Context(), sample)
			var ve *flows.ValidationError
			if errors.As(err, &ve) {
				a.println(errorStyle.Render(ve.Error()))
				return errReported
			}
			a.println(renderPrediction(flows.RenderPrediction(flow.State())))
			if err != nil {
				return errReported
			}
			return nil
		},
	}
	for _, f := range models.SoilFields {
		values[f] = cmd.Flags().String(f, "", flows.FieldLabels[f])
	}
	return cmd
}

func newProfileCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show farmer profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if _, _, err := a.enter(cmd.Context(), guard.DashboardPath); err != nil {
				return err
			}
			profiles, err := a.client.Profiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}
			a.println(renderProfiles(profiles))
			return nil
		},
	}

	var req models.ProfileRequest
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update your farmer profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if _, _, err := a.enter(cmd.Context(), guard.DashboardPath); err != nil {
				return err
			}
			p, err := a.client.SaveProfile(cmd.Context(), req)
			if err != nil {
				a.println(errorStyle.Render(flows.FailureMessage(err)))
				return errReported
			}
			a.println(renderProfiles([]models.FarmerProfile{*p}))
			return nil
		},
	}
	set.Flags().StringVar(&req.Location, "location", "", "farm location")
	set.Flags().Float64Var(&req.FarmSize, "farm-size", 0, "farm size in acres")
	_ = set.MarkFlagRequired("location")
	cmd.AddCommand(set)
	return cmd
}

func newRecordsCmd(current func() *app) *cobra.Command {
	var q apiclient.RecordQuery
	cmd := &cobra.Command{
		Use:   "records [id]",
		Short: "Browse past crop predictions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if _, _, err := a.enter(cmd.Context(), guard.DashboardPath); err != nil {
				return err
			}
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid prediction id %q", args[0])
				}
				rec, err := a.client.Prediction(cmd.Context(), id)
				if err != nil {
					a.println(errorStyle.Render(flows.FailureMessage(err)))
					return errReported
				}
				a.println(renderRecord(*rec))
				return nil
			}
			page, err := a.client.Predictions(cmd.Context(), q)
			if err != nil {
				a.println(errorStyle.Render(flows.FailureMessage(err)))
				return errReported
			}
			a.println(renderRecords(page))
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", 0, "records per page")
	cmd.Flags().StringVar(&q.Crop, "crop", "", "filter by crop name")
	return cmd
}

func newOpenCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <route>",
		Short: "Navigate to a route such as /dashboard or /crop-prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			route, sess, err := a.enter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			switch route.Path {
			case guard.DashboardPath:
				showDashboard(cmd, a, sess)
			case guard.CropPredictionPath:
				a.println(renderForm())
			case guard.LoginPath:
				a.println("Run `agrisense login --username <name> --password <password>`.")
			case guard.RegisterPath:
				a.println("Run `agrisense register --username <name> --password <password>`.")
			}
			return nil
		},
	}
}
