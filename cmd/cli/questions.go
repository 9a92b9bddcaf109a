package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Browse, search, and post questions",
	Long:  "Commands for listing, searching, asking, and voting on questions",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions",
	Long: `List questions with optional sorting and filtering.

Examples:
  askhub questions list
  askhub questions list --sort votes --limit 50
  askhub questions list --sort unanswered --tag go`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")
		sort, _ := cmd.Flags().GetString("sort")
		tag, _ := cmd.Flags().GetString("tag")
		return listQuestions(page, limit, sort, tag)
	},
}

var questionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over question titles and bodies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return searchQuestions(args[0], limit)
	},
}

var questionsAskCmd = &cobra.Command{
	Use:   "ask",
	Short: "Post a new question",
	Long: `Post a new question. Requires an auth token.

Examples:
  askhub questions ask --title "How do I tune GOGC?" --body "..." --tags go,performance`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		return askQuestion(title, body, tags)
	},
}

var questionsVoteCmd = &cobra.Command{
	Use:   "vote <question|answer> <id> <upvote|downvote>",
	Short: "Toggle a vote on a question or answer",
	Long: `Toggle a vote. Pressing the same direction twice removes the vote;
pressing the opposite direction flips it.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleVote(args[0], args[1], args[2])
	},
}

func init() {
	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsSearchCmd)
	questionsCmd.AddCommand(questionsAskCmd)
	questionsCmd.AddCommand(questionsVoteCmd)

	questionsListCmd.Flags().IntP("limit", "l", 20, "Maximum number of results")
	questionsListCmd.Flags().IntP("page", "p", 1, "Page number")
	questionsListCmd.Flags().StringP("sort", "s", "newest", "Sort order: newest, votes, active, unanswered")
	questionsListCmd.Flags().StringP("tag", "t", "", "Filter by tag")

	questionsSearchCmd.Flags().IntP("limit", "l", 20, "Maximum number of results")

	questionsAskCmd.Flags().String("title", "", "Question title (required)")
	questionsAskCmd.Flags().String("body", "", "Question body (required)")
	questionsAskCmd.Flags().StringSlice("tags", []string{}, "Tags (comma-separated or repeated)")
	questionsAskCmd.MarkFlagRequired("title")
	questionsAskCmd.MarkFlagRequired("body")
}

// apiCall performs a request against the API and decodes the response envelope
func apiCall(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if success, _ := envelope["success"].(bool); !success {
		if errBody, ok := envelope["error"].(map[string]interface{}); ok {
			return nil, fmt.Errorf("%v: %v", errBody["code"], errBody["message"])
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return envelope, nil
}

func printJSON(v interface{}) {
	encoded, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(encoded))
}

func printQuestionRows(questions []interface{}) {
	for _, raw := range questions {
		q, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		score := int(toFloat(q["upvotes_count"]) - toFloat(q["downvotes_count"]))
		answers := int(toFloat(q["answer_count"]))
		tags := ""
		if rawTags, ok := q["tags"].([]interface{}); ok && len(rawTags) > 0 {
			parts := make([]string, 0, len(rawTags))
			for _, t := range rawTags {
				parts = append(parts, fmt.Sprintf("%v", t))
			}
			tags = " [" + strings.Join(parts, ", ") + "]"
		}
		fmt.Printf("%4d votes %3d answers  %s%s\n", score, answers, q["title"], tags)
		fmt.Printf("           id: %s\n", q["id"])
	}
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func listQuestions(page, limit int, sort, tag string) error {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", sort)
	if tag != "" {
		params.Set("tag", tag)
	}

	envelope, err := apiCall("GET", "/api/questions?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	if output == "json" {
		printJSON(envelope["data"])
		return nil
	}

	data := envelope["data"].(map[string]interface{})
	questions, _ := data["questions"].([]interface{})
	fmt.Printf("Showing %d of %v questions (page %v)\n\n", len(questions), data["total"], data["page"])
	printQuestionRows(questions)
	return nil
}

func searchQuestions(query string, limit int) error {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	envelope, err := apiCall("GET", "/api/questions/search?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	if output == "json" {
		printJSON(envelope["data"])
		return nil
	}

	data := envelope["data"].(map[string]interface{})
	questions, _ := data["questions"].([]interface{})
	fmt.Printf("Found %d questions matching %q\n\n", len(questions), query)
	printQuestionRows(questions)
	return nil
}

func askQuestion(title, body string, tags []string) error {
	if authToken == "" {
		return fmt.Errorf("ASKHUB_TOKEN is required to post a question")
	}

	envelope, err := apiCall("POST", "/api/questions", map[string]interface{}{
		"title": title,
		"body":  body,
		"tags":  tags,
	})
	if err != nil {
		return err
	}

	if output == "json" {
		printJSON(envelope["data"])
		return nil
	}

	data := envelope["data"].(map[string]interface{})
	fmt.Printf("Question posted: %s\n", data["id"])
	return nil
}

func toggleVote(targetType, targetID, voteType string) error {
	if authToken == "" {
		return fmt.Errorf("ASKHUB_TOKEN is required to vote")
	}

	envelope, err := apiCall("POST", "/api/votes", map[string]interface{}{
		"target_type": targetType,
		"target_id":   targetID,
		"vote_type":   voteType,
	})
	if err != nil {
		return err
	}

	if output == "json" {
		printJSON(envelope["data"])
		return nil
	}

	data := envelope["data"].(map[string]interface{})
	fmt.Printf("Vote %v: %v up / %v down\n", data["action"], data["upvotes_count"], data["downvotes_count"])
	return nil
}
