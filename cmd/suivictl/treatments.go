package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"suivistock/internal/services"
)

var treatmentsCmd = &cobra.Command{
	Use:   "treatments",
	Short: "List the treatment catalog",
	Long:  "List every declared treatment with its identifier, label and implementation status.",
	RunE:  listTreatments,
}

func listTreatments(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadCLIConfig()
	if err != nil {
		return err
	}

	service, err := services.NewTreatmentServiceWithLogger(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize treatment service: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tIMPLEMENTED")
	for _, treatment := range service.Catalog(cmd.Context()) {
		implemented := "no"
		if treatment.Implemented {
			implemented = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", treatment.ID, treatment.Label, implemented)
	}
	return w.Flush()
}
