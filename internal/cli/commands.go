package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	grpcadapter "github.com/simaogato/pricewatch-backend/internal/adapter/grpc"
)

// NewCreateUserCommand creates the create-user command.
func NewCreateUserCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-user <name>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, opts, grpcadapter.MethodCreateUser, map[string]any{"name": args[0]})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) {
				fmt.Fprintf(w, "user %s\n", num(resp["user_id"]))
			})
		},
	}
}

// NewAddItemCommand creates the add-item command.
func NewAddItemCommand(opts *RootOptions) *cobra.Command {
	var (
		userID      int64
		marketplace string
		externalID  string
		title       string
		url         string
	)

	cmd := &cobra.Command{
		Use:   "add-item",
		Short: "Start tracking a marketplace listing",
		Long: `Start tracking a marketplace listing.

Adding the same listing twice returns the existing tracked item.

Example:
  pricewatchctl add-item --user 1 --marketplace ebay --external-id EBAY-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{
				"user_id":     userID,
				"marketplace": marketplace,
				"external_id": externalID,
			}
			if title != "" {
				fields["title"] = title
			}
			if url != "" {
				fields["url"] = url
			}

			resp, err := call(cmd, opts, grpcadapter.MethodAddTrackedItem, fields)
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) {
				fmt.Fprintf(w, "tracked item %s\n", num(resp["tracked_item_id"]))
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "owner user id")
	cmd.Flags().StringVar(&marketplace, "marketplace", "ebay", "marketplace name")
	cmd.Flags().StringVar(&externalID, "external-id", "", "listing id on the marketplace")
	cmd.Flags().StringVar(&title, "title", "", "optional title")
	cmd.Flags().StringVar(&url, "url", "", "optional url")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("external-id")

	return cmd
}

// NewItemsCommand creates the items command.
func NewItemsCommand(opts *RootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the active tracked items of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, opts, grpcadapter.MethodListTrackedItems, map[string]any{"user_id": userID})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) { writeItems(w, resp) })
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "owner user id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// NewDeactivateItemCommand creates the deactivate-item command.
func NewDeactivateItemCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate-item <tracked-item-id>",
		Short: "Stop tracking an item, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := call(cmd, opts, grpcadapter.MethodDeactivateTrackedItem, map[string]any{"tracked_item_id": id})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) {
				fmt.Fprintf(w, "tracked item %d deactivated\n", id)
			})
		},
	}
}

// NewAddRuleCommand creates the add-rule command.
func NewAddRuleCommand(opts *RootOptions) *cobra.Command {
	var (
		itemID   int64
		ruleType string
		target   string
		percent  string
	)

	cmd := &cobra.Command{
		Use:   "add-rule",
		Short: "Attach an alert rule to a tracked item",
		Long: `Attach an alert rule to a tracked item.

Rule types: PRICE_BELOW (--target), DROP_PERCENT (--percent), BACK_IN_STOCK.

Example:
  pricewatchctl add-rule --item 1 --type PRICE_BELOW --target 850`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			if target != "" {
				params["target"] = target
			}
			if percent != "" {
				params["percent"] = percent
			}

			resp, err := call(cmd, opts, grpcadapter.MethodAddRule, map[string]any{
				"tracked_item_id": itemID,
				"rule_type":       ruleType,
				"params":          params,
			})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) {
				fmt.Fprintf(w, "rule %s (%s)\n", num(resp["rule_id"]), resp["rule_type"])
			})
		},
	}

	cmd.Flags().Int64Var(&itemID, "item", 0, "tracked item id")
	cmd.Flags().StringVar(&ruleType, "type", "", "rule type")
	cmd.Flags().StringVar(&target, "target", "", "PRICE_BELOW target price")
	cmd.Flags().StringVar(&percent, "percent", "", "DROP_PERCENT threshold")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// NewDisableRuleCommand creates the disable-rule command.
func NewDisableRuleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disable-rule <rule-id>",
		Short: "Stop evaluating a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := call(cmd, opts, grpcadapter.MethodDisableRule, map[string]any{"rule_id": id})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) {
				fmt.Fprintf(w, "rule %d disabled\n", id)
			})
		},
	}
}

// NewRunCycleCommand creates the run-cycle command.
func NewRunCycleCommand(opts *RootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "run-cycle",
		Short: "Refresh every active item of a user and evaluate its rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, opts, grpcadapter.MethodRunCycle, map[string]any{"user_id": userID})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) { writeCycle(w, resp) })
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand(opts *RootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List the alerts of a user, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(cmd, opts, grpcadapter.MethodListAlerts, map[string]any{"user_id": userID})
			if err != nil {
				return err
			}
			return render(cmd, opts, resp, func(w io.Writer) { writeAlerts(w, resp) })
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}
