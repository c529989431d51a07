package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/interstellar-mare/advisor/internal/store"
	"github.com/interstellar-mare/advisor/internal/tier"
)

var tierJSON bool

var tierCmd = &cobra.Command{
	Use:   "tier <session-id>",
	Short: "Print the tier assessment for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initAdvisor(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		sessionID := args[0]
		profile, err := env.Store.GetProfileBySession(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		conv, err := env.Store.GetConversationByProfile(cmd.Context(), profile.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		assessment := env.Classifier.Classify(cmd.Context(), profile, conv)

		if tierJSON {
			return json.NewEncoder(os.Stdout).Encode(assessment)
		}

		if assessment.Phase == tier.PhaseDiscovery {
			fmt.Printf("Profil henüz tamamlanmadı (%d%%).\n", int(profile.CompletionRatio()*100))
			return nil
		}
		fmt.Printf("Segment: %s — %s (%s)\n", assessment.Tier, assessment.Package.Name, assessment.Package.BudgetRange)
		fmt.Printf("Odak: %s\n", assessment.Package.Focus)
		if assessment.NearUpgrade {
			fmt.Println("Bir üst segmente yakın.")
		}
		if assessment.Evaluation != "" {
			fmt.Printf("\n%s\n", assessment.Evaluation)
		}
		return nil
	},
}

func init() {
	tierCmd.Flags().BoolVar(&tierJSON, "json", false, "print assessment as JSON")
	rootCmd.AddCommand(tierCmd)
}
