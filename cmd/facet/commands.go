package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the assistant a question about the profile",
	Long: `Ask the assistant a question about the profile.

Examples:
  facet chat "What projects have they worked on?"
  facet chat --session work "What about their Go experience?"
  facet chat --no-context "What is a monad?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		session, _ := cmd.Flags().GetString("session")
		noContext, _ := cmd.Flags().GetBool("no-context")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"message": message}
		if session != "" {
			req["sessionId"] = session
		}
		if noContext {
			req["includePersonalContext"] = false
		}

		resp, err := client.post(cmd.Context(), "/api/chat", req)
		if err != nil {
			return err
		}

		var result struct {
			Response         string `json:"response"`
			SessionID        string `json:"sessionId"`
			PersonalDataUsed bool   `json:"personalDataUsed"`
			ContextLength    int    `json:"contextLength"`
			IsDemo           bool   `json:"isDemo"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.IsDemo {
			printWarning("demo mode — configure a model API key for real answers")
		}
		fmt.Println(result.Response)
		if result.PersonalDataUsed {
			printStatus("Context", "personal data used (session %s, %d prior messages)",
				result.SessionID, result.ContextLength)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().String("session", "", "conversation session id")
	chatCmd.Flags().Bool("no-context", false, "answer without personal profile context")
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the profile sections relevant to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/search", map[string]any{"query": query})
		if err != nil {
			return err
		}

		var result struct {
			Results  json.RawMessage `json:"results"`
			Sections []string        `json:"sections"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Sections) == 0 {
			fmt.Println("No matching sections.")
			return nil
		}

		printStatus("Sections", "%s", strings.Join(result.Sections, ", "))
		return printIndented(result.Results)
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the profile document",
}

var profileShowCmd = &cobra.Command{
	Use:   "show [section]",
	Short: "Show the profile (or one section) as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/api/profile"
		if len(args) == 1 {
			path += "/" + args[0]
		}

		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var doc any
		if err := decodeJSON(resp, &doc); err != nil {
			return err
		}
		return printIndented(doc)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <section> <json>",
	Short: "Replace one profile section with a JSON value",
	Long: `Replace one profile section with a JSON value.

Examples:
  facet profile set biography '{"name":"Ada","title":"Engineer","description":"Builds things"}'
  facet profile set skills '[{"name":"Go","category":"programming","proficiency":"expert"}]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		section, value := args[0], args[1]

		var raw json.RawMessage
		if err := json.Unmarshal([]byte(value), &raw); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/api/profile/"+section, raw)
		if err != nil {
			return err
		}

		var stored any
		if err := decodeJSON(resp, &stored); err != nil {
			return err
		}

		printSuccess("Updated %s", section)
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a JSON document file into the profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		var raw json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/api/profile", raw)
		if err != nil {
			return err
		}

		var stored any
		if err := decodeJSON(resp, &stored); err != nil {
			return err
		}

		printSuccess("Profile updated from %s", args[0])
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileImportCmd)
}

// --- sessions ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/context/sessions")
		if err != nil {
			return err
		}

		var sessions []struct {
			SessionID    string `json:"sessionId"`
			MessageCount int    `json:"messageCount"`
		}
		if err := decodeJSON(resp, &sessions); err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No active sessions.")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %d messages\n", colorize(colorCyan, s.SessionID), s.MessageCount)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/context/"+args[0])
		if err != nil {
			return err
		}

		var result struct {
			SessionID string `json:"sessionId"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Messages) == 0 {
			fmt.Println("Session is empty.")
			return nil
		}
		for _, m := range result.Messages {
			fmt.Printf("%s %s\n", colorize(colorBold, m.Role+":"), m.Content)
		}
		return nil
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Forget a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/context/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Cleared session %s", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
}

// --- exchanges ---

var exchangesCmd = &cobra.Command{
	Use:   "exchanges",
	Short: "Inspect the exchange audit log",
}

var exchangesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/exchanges?limit=%d", limit))
		if err != nil {
			return err
		}

		var exchanges []struct {
			ID          string `json:"id"`
			CreatedAt   string `json:"createdAt"`
			SessionID   string `json:"sessionId"`
			UserMessage string `json:"userMessage"`
		}
		if err := decodeJSON(resp, &exchanges); err != nil {
			return err
		}

		if len(exchanges) == 0 {
			fmt.Println("No exchanges recorded.")
			return nil
		}
		for _, x := range exchanges {
			msg := x.UserMessage
			if len(msg) > 80 {
				msg = msg[:80] + "..."
			}
			fmt.Printf("%s  %s  %s\n", colorize(colorCyan, shortID(x.ID)), x.CreatedAt, msg)
		}
		return nil
	},
}

var exchangesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single exchange",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/exchanges/"+args[0])
		if err != nil {
			return err
		}

		var exchange any
		if err := decodeJSON(resp, &exchange); err != nil {
			return err
		}
		return printIndented(exchange)
	},
}

func init() {
	exchangesListCmd.Flags().Int("limit", 20, "maximum number of exchanges to list")
	exchangesCmd.AddCommand(exchangesListCmd)
	exchangesCmd.AddCommand(exchangesShowCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printIndented(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
