package cli

import (
	"fmt"

	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/spf13/cobra"
)

func newCompanyCmd(e *env) *cobra.Command {
	cmd := view(&cobra.Command{
		Use:   "about",
		Short: "Show information about FlyEazy",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.app.Services.Company.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("no company information available")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n%s\n", c.Name, c.Description)
			for _, line := range [][2]string{
				{"Mission", c.Mission}, {"Vision", c.Vision},
				{"Email", c.ContactEmail}, {"Phone", c.Phone}, {"Address", c.Address},
			} {
				if line[1] != "" {
					fmt.Fprintf(out, "%-8s %s\n", line[0]+":", line[1])
				}
			}
			return nil
		},
	}, navigation.PathAbout)

	fields := map[string]*string{}
	update := view(&cobra.Command{
		Use:   "update",
		Short: "Edit the company information (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := map[string]any{}
			for key, v := range fields {
				if cmd.Flags().Changed(flagFor(key)) {
					patch[key] = *v
				}
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update")
			}
			if _, err := e.app.Services.Company.Save(cmd.Context(), patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Company information updated")
			return nil
		},
	}, navigation.PathAdmin)
	for key, usage := range companyFields {
		fields[key] = update.Flags().String(flagFor(key), "", usage)
	}
	cmd.AddCommand(update)
	return cmd
}

// companyFields maps JSON keys of models.Company to flag help
var companyFields = map[string]string{
	"name":         "company name",
	"description":  "short description",
	"mission":      "mission statement",
	"vision":       "vision statement",
	"contactEmail": "contact email",
	"phone":        "phone number",
	"address":      "postal address",
}

func flagFor(key string) string {
	if key == "contactEmail" {
		return "email"
	}
	return key
}
