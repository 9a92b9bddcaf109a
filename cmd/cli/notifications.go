package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "View and manage your notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notifications",
	Long: `List your notifications, most recent first.

Examples:
  askhub notifications list
  askhub notifications list --unread --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unread, _ := cmd.Flags().GetBool("unread")
		limit, _ := cmd.Flags().GetInt("limit")
		return listNotifications(unread, limit)
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [id ...]",
	Short: "Mark notifications as read",
	Long: `Mark specific notifications as read, or all of them with --all.

Examples:
  askhub notifications read --all
  askhub notifications read 4f1c... 9a2b...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("provide notification ids or --all")
		}
		return markNotificationsRead(all, args)
	},
}

func init() {
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)

	notificationsListCmd.Flags().Bool("unread", false, "Only show unread notifications")
	notificationsListCmd.Flags().IntP("limit", "l", 20, "Maximum number of results")

	notificationsReadCmd.Flags().Bool("all", false, "Mark every notification as read")
}

func listNotifications(unread bool, limit int) error {
	if authToken == "" {
		return fmt.Errorf("ASKHUB_TOKEN is required to view notifications")
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if unread {
		params.Set("unread", "true")
	}

	envelope, err := apiCall("GET", "/api/notifications?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	if output == "json" {
		printJSON(envelope["data"])
		return nil
	}

	data := envelope["data"].(map[string]interface{})
	notifications, _ := data["notifications"].([]interface{})
	if len(notifications) == 0 {
		fmt.Println("No notifications")
		return nil
	}

	for _, raw := range notifications {
		n, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		marker := " "
		if isRead, _ := n["is_read"].(bool); !isRead {
			marker = "*"
		}
		fmt.Printf("%s [%v] %v\n", marker, n["type"], n["message"])
		fmt.Printf("    id: %s\n", n["id"])
	}
	return nil
}

func markNotificationsRead(all bool, ids []string) error {
	if authToken == "" {
		return fmt.Errorf("ASKHUB_TOKEN is required to manage notifications")
	}

	body := map[string]interface{}{}
	if all {
		body["all"] = true
	} else {
		body["ids"] = ids
	}

	envelope, err := apiCall("POST", "/api/notifications/read", body)
	if err != nil {
		return err
	}

	if output == "json" {
		printJSON(envelope["data"])
		return nil
	}

	data := envelope["data"].(map[string]interface{})
	fmt.Printf("Marked %v notifications as read\n", data["updated"])
	return nil
}
