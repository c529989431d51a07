package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/interstellar-mare/advisor/internal/conversation"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive advisor session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initAdvisor(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		sessionID := chatSessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		fmt.Printf("Oturum: %s (çıkmak için /quit)\n\n", sessionID)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				break
			}

			reply := env.Orchestrator.HandleMessage(cmd.Context(), sessionID, line)
			fmt.Printf("\n%s\n", reply.Response)
			if reply.Type == conversation.ResponseAnalysis {
				fmt.Println("\n[profil tamamlandı]")
			}
			fmt.Println()
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session id")
	rootCmd.AddCommand(chatCmd)
}
