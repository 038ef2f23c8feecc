package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackforge/s2s/internal/config"
	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/models"
)

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Manage offers",
	Long: `Create and manage the offers that tracking links point at.

Each offer carries its own goal name and an optional postback template that
overrides the global default.`,
}

var offerCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new offer",
	Long: `Create an offer and print its tracking link.

Examples:
  s2s offer create "Spring Sale"
  s2s offer create "Spring Sale" --goal sale --template "https://net.example/pb?tid={transaction_id}"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOfferCreate(args[0])
	},
}

var offerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOfferList()
	},
}

var offerShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one offer with its tracking link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOfferShow(args[0])
	},
}

var offerPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause an offer (its tracking links stop accepting traffic)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOfferSetStatus(args[0], models.OfferStatusPaused)
	},
}

var offerActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Reactivate a paused offer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOfferSetStatus(args[0], models.OfferStatusActive)
	},
}

// Command flags
var (
	offerDescription string
	offerGoal        string
	offerTemplate    string
	offerPaused      bool
)

func runOfferCreate(name string) error {
	cleanup, err := ensureDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	offer := &models.Offer{
		Name:             name,
		Description:      offerDescription,
		GoalName:         offerGoal,
		PostbackTemplate: offerTemplate,
	}
	if offerPaused {
		offer.Status = models.OfferStatusPaused
	}
	if err := models.CreateOffer(ctx, database.DB, offer); err != nil {
		return err
	}

	fmt.Printf("\nOffer %d created: %s\n\n", offer.ID, offer.Name)
	fmt.Printf("Tracking link: %s\n\n", trackingLink(offer.ID))
	fmt.Println("Networks should append their transaction id, e.g. &t={transaction_id}")
	return nil
}

func runOfferList() error {
	cleanup, err := ensureDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	offers, err := models.ListOffers(ctx, database.DB)
	if err != nil {
		return err
	}
	if len(offers) == 0 {
		fmt.Println("No offers yet. Create one with: s2s offer create <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tGOAL\tSTATUS\tTEMPLATE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t------\t--------\t-------")
	for _, o := range offers {
		template := "-"
		if o.PostbackTemplate != "" {
			template = "custom"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.Name, o.GoalName, o.Status, template,
			o.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
	return nil
}

func runOfferShow(idArg string) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offer id %q", idArg)
	}

	cleanup, err := ensureDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	offer, err := models.GetOffer(ctx, database.DB, id)
	if err != nil {
		return err
	}
	if offer == nil {
		return fmt.Errorf("offer %d not found", id)
	}

	fmt.Printf("Offer:         %s (#%d)\n", offer.Name, offer.ID)
	if offer.Description != "" {
		fmt.Printf("Description:   %s\n", offer.Description)
	}
	fmt.Printf("Goal:          %s\n", offer.GoalName)
	fmt.Printf("Status:        %s\n", offer.Status)
	if offer.PostbackTemplate != "" {
		fmt.Printf("Template:      %s\n", offer.PostbackTemplate)
	} else {
		fmt.Println("Template:      (global default)")
	}
	fmt.Printf("Created:       %s\n", offer.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Tracking link: %s\n", trackingLink(offer.ID))
	return nil
}

func runOfferSetStatus(idArg, status string) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offer id %q", idArg)
	}

	cleanup, err := ensureDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := models.SetOfferStatus(ctx, database.DB, id, status); err != nil {
		return fmt.Errorf("failed to set offer %d to %s: %w", id, status, err)
	}
	fmt.Printf("Offer %d is now %s\n", id, status)
	return nil
}

// trackingLink renders the public click URL for an offer, using the configured
// base URL when one exists.
func trackingLink(offerID int64) string {
	base := "http://localhost:3000"
	if cfg, err := config.Load(); err == nil && cfg.PublicBaseURL != "" {
		base = cfg.PublicBaseURL
	}
	return fmt.Sprintf("%s/click?offer=%d&t={transaction_id}", base, offerID)
}

func init() {
	offerCreateCmd.Flags().StringVarP(&offerDescription, "description", "d", "", "Offer description")
	offerCreateCmd.Flags().StringVarP(&offerGoal, "goal", "g", "", "Goal name reported in postbacks (default 'lead')")
	offerCreateCmd.Flags().StringVarP(&offerTemplate, "template", "t", "", "Per-offer postback template (overrides the global default)")
	offerCreateCmd.Flags().BoolVar(&offerPaused, "paused", false, "Create the offer in paused state")

	offerCmd.AddCommand(offerCreateCmd)
	offerCmd.AddCommand(offerListCmd)
	offerCmd.AddCommand(offerShowCmd)
	offerCmd.AddCommand(offerPauseCmd)
	offerCmd.AddCommand(offerActivateCmd)

	RootCmd.AddCommand(offerCmd)
}
