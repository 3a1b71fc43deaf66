package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omarjafor/voice-chatbot-lead-backend/internal/config"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Have a conversation with a running leadbot server",
	Long: `Have a conversation with a running leadbot server.

Starts a new session and relays typed answers until the intake sequence
completes. Useful for trying the conversation flow without a front-end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/api/chat/start", nil)
		if err != nil {
			return err
		}
		var start struct {
			SessionID string `json:"session_id"`
			Message   string `json:"message"`
		}
		if err := decodeJSON(resp, &start); err != nil {
			return err
		}

		fmt.Printf("agent: %s\n", start.Message)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}

			resp, err := client.post("/api/chat/message", map[string]string{
				"session_id": start.SessionID,
				"message":    scanner.Text(),
			})
			if err != nil {
				return err
			}
			var reply struct {
				AgentMessage    string `json:"agent_message"`
				IsComplete      bool   `json:"is_complete"`
				ValidationError string `json:"validation_error"`
			}
			if err := decodeJSON(resp, &reply); err != nil {
				return err
			}

			fmt.Printf("agent: %s\n", reply.AgentMessage)
			if reply.ValidationError != "" {
				printWarning("validation: %s", reply.ValidationError)
			}
			if reply.IsComplete {
				printSuccess("Conversation complete (session %s)", start.SessionID)
				return nil
			}
		}
	},
}

// --- leads ---

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect or delete collected leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collected leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/api/leads")
		if err != nil {
			return err
		}

		var leads []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			Phone     string `json:"phone"`
			Interest  string `json:"interest"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &leads); err != nil {
			return err
		}

		if len(leads) == 0 {
			fmt.Println("No leads collected yet.")
			return nil
		}

		for _, l := range leads {
			fmt.Printf("%s  %s  %s  %s  %s\n",
				colorize(colorCyan, l.ID[:8]),
				l.CreatedAt,
				l.Name,
				l.Email,
				l.Interest,
			)
		}
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/api/leads/" + args[0])
		if err != nil {
			return err
		}

		var lead any
		if err := decodeJSON(resp, &lead); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lead)
	},
}

var leadsDeleteSessionCmd = &cobra.Command{
	Use:   "delete-session <session_id>",
	Short: "Delete all leads collected by a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete("/api/sessions/" + args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted leads for session %s", args[0])
		return nil
	},
}

func init() {
	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsDeleteSessionCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
